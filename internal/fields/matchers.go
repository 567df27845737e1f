package fields

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Matcher is a single named heuristic over flat OCR text. Implementations
// must be pure: no shared state, same input -> same output. Returning
// ok=false means "not found", which downstream maps to an empty field.
type Matcher interface {
	Name() string
	TryMatch(text string) (string, bool)
}

// Field names as they appear on ExtractedInvoice. The extractor binds
// matcher names to record fields through these.
const (
	FieldInvoiceDate   = "invoice_date"
	FieldInvoiceNumber = "invoice_number"
	FieldSupplierName  = "supplier_name"
	FieldClientName    = "client_name"
	FieldTotalExclTax  = "total_excl_tax"
	FieldTotalInclTax  = "total_incl_tax"
	FieldTaxAmount     = "tax_amount"
)

var (
	reDate = regexp.MustCompile(`\b(?:\d{2}[/\-.]\d{2}[/\-.]\d{4}|\d{4}[/\-.]\d{2}[/\-.]\d{2})\b`)

	reInvoiceNumber = regexp.MustCompile(`(?i)(?:Facture\s*(?:n[o°]?)?[:\s\-]|N[°o]\s[:#\s-]*)([A-Za-z0-9\-/_.]+)`)

	reSupplier = regexp.MustCompile(`(?i)(?:Fournisseur|Soci[eé]t[eé]|Vendeur|Émetteur)[:\s]*([A-Za-z0-9 \-.,&]+)`)

	// Lines containing any of these words are never used as the unlabeled
	// supplier fallback: they belong to the invoice body, not the letterhead.
	reSupplierStop = regexp.MustCompile(`(?i)facture|total|tva|client`)

	reClient = regexp.MustCompile(`(?i)(Factur(?:é|ee)\s+à|Client[:\s])\s*(.+)`)
)

// Catalog returns the default matcher set in a stable order. The order only
// affects logging; every matcher probes the raw text independently.
func Catalog() []Matcher {
	return []Matcher{
		DateMatcher{},
		InvoiceNumberMatcher{},
		SupplierMatcher{},
		ClientMatcher{},
		TotalExclTaxMatcher{},
		TotalInclTaxMatcher{},
		TaxMatcher{},
	}
}

// DateMatcher finds the first date-shaped token (DD/MM/YYYY, DD-MM-YYYY,
// DD.MM.YYYY or the year-first variants) and returns it verbatim. Source
// formats are ambiguous, so the token is never parsed or normalized.
type DateMatcher struct{}

func (DateMatcher) Name() string { return FieldInvoiceDate }

func (DateMatcher) TryMatch(text string) (string, bool) {
	m := reDate.FindString(text)
	return m, m != ""
}

// InvoiceNumberMatcher captures the alphanumeric token adjoining the first
// "Facture n°"/"N°"-style label.
type InvoiceNumberMatcher struct{}

func (InvoiceNumberMatcher) Name() string { return FieldInvoiceNumber }

func (InvoiceNumberMatcher) TryMatch(text string) (string, bool) {
	m := reInvoiceNumber.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

// SupplierMatcher looks for an explicit issuer label first. Without one it
// falls back to the first substantive line of text, on the assumption that
// an unlabeled issuer name sits near the top of the document.
type SupplierMatcher struct{}

func (SupplierMatcher) Name() string { return FieldSupplierName }

func (SupplierMatcher) TryMatch(text string) (string, bool) {
	if m := reSupplier.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		if v != "" {
			return v, true
		}
	}
	for _, line := range strings.Split(text, "\n") {
		candidate := strings.TrimSpace(line)
		if utf8.RuneCountInString(candidate) > 3 && !reSupplierStop.MatchString(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// ClientMatcher captures the rest of the logical line after a
// "Facturé à"/"Client" label. There is no fallback: an unlabeled client
// stays empty so a trusted external name can take its place.
type ClientMatcher struct{}

func (ClientMatcher) Name() string { return FieldClientName }

func (ClientMatcher) TryMatch(text string) (string, bool) {
	m := reClient.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := m[2]
	if i := strings.IndexByte(v, '\n'); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
