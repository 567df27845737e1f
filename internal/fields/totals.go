package fields

import (
	"regexp"
	"strings"
)

var (
	reTax   = regexp.MustCompile(`(?i)TVA[:\s]*([0-9.,]{1,20}%?)`)
	reTotal = regexp.MustCompile(`(?i)Total\s*(?:TTC|HT)?[:\s]*([0-9.,\s€]{1,30})`)
)

// qualifierWindow is how far back (in bytes of raw text) scanTotals looks
// for a TTC/HT qualifier before a captured amount. 15 bytes is enough to
// cover the "Total TTC: " label itself plus a little slack for OCR noise.
const qualifierWindow = 15

// scanTotals inspects every "Total" occurrence and splits the captured
// amounts into excluding-tax and including-tax buckets. The short window of
// text preceding each amount decides the bucket: "TTC" wins over "HT", and
// an unqualified total is assumed tax-inclusive because that is the figure
// a receipt usually foregrounds. An unqualified match never overwrites an
// including-tax value that is already set; a later explicit TTC match does.
func scanTotals(text string) (exclTax, inclTax string) {
	for _, loc := range reTotal.FindAllStringSubmatchIndex(text, -1) {
		value := strings.TrimSpace(text[loc[2]:loc[3]])
		if value == "" {
			continue
		}
		start := loc[2] - qualifierWindow
		if start < 0 {
			start = 0
		}
		before := strings.ToUpper(text[start:loc[2]])
		switch {
		case strings.Contains(before, "TTC"):
			inclTax = value
		case strings.Contains(before, "HT"):
			exclTax = value
		case inclTax == "":
			inclTax = value
		}
	}
	return exclTax, inclTax
}

// TotalExclTaxMatcher reports the amount attributed to "Total HT".
type TotalExclTaxMatcher struct{}

func (TotalExclTaxMatcher) Name() string { return FieldTotalExclTax }

func (TotalExclTaxMatcher) TryMatch(text string) (string, bool) {
	exclTax, _ := scanTotals(text)
	return exclTax, exclTax != ""
}

// TotalInclTaxMatcher reports the amount attributed to "Total TTC",
// including unqualified totals per the default above.
type TotalInclTaxMatcher struct{}

func (TotalInclTaxMatcher) Name() string { return FieldTotalInclTax }

func (TotalInclTaxMatcher) TryMatch(text string) (string, bool) {
	_, inclTax := scanTotals(text)
	return inclTax, inclTax != ""
}

// TaxMatcher captures the numeric token after the first "TVA" label. The
// value may carry a percent sign; it is kept verbatim either way.
type TaxMatcher struct{}

func (TaxMatcher) Name() string { return FieldTaxAmount }

func (TaxMatcher) TryMatch(text string) (string, bool) {
	m := reTax.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}
