package fields

import (
	"log/slog"
	"time"

	"github.com/tallyrelay/invoice-processor/internal/entity"
)

// Options carries per-call inputs besides the text itself.
type Options struct {
	// Label identifies the document in logs only (filename, URL index).
	Label string
	// PreferredClientName, when non-empty, overrides whatever the client
	// matcher found. It comes from a trusted source such as the webhook
	// respondent name.
	PreferredClientName string
}

// Extractor runs the pattern catalog against one document's text and builds
// exactly one ExtractedInvoice. It never fails: a matcher that finds nothing
// leaves its field empty, and a matcher that panics is contained so the
// remaining fields still populate.
type Extractor struct {
	matchers []Matcher
	logger   *slog.Logger
	now      func() time.Time
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return NewExtractorWithMatchers(Catalog(), logger)
}

// NewExtractorWithMatchers builds an Extractor over a custom matcher set.
// Matchers can be added, removed or reordered without touching Extract.
func NewExtractorWithMatchers(matchers []Matcher, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{matchers: matchers, logger: logger, now: time.Now}
}

// Extract probes every matcher independently over the raw text and
// assembles the record. Safe for concurrent use: nothing is shared between
// calls beyond the immutable matcher set.
func (e *Extractor) Extract(text string, opts Options) entity.ExtractedInvoice {
	rec := entity.ExtractedInvoice{
		CapturedAt: e.now().UTC().Format(time.RFC3339),
	}
	for _, m := range e.matchers {
		value := e.probe(m, text, opts.Label)
		assign(&rec, m.Name(), value)
	}
	if opts.PreferredClientName != "" {
		rec.ClientName = opts.PreferredClientName
	}
	return rec
}

// probe isolates matcher failures: a panic inside one matcher degrades to
// "no match" for that field only.
func (e *Extractor) probe(m Matcher, text, label string) (value string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("fields.matcher.panic", "matcher", m.Name(), "label", label, "panic", r)
			value = ""
		}
	}()
	v, ok := m.TryMatch(text)
	if !ok {
		return ""
	}
	return v
}

func assign(rec *entity.ExtractedInvoice, name, value string) {
	switch name {
	case FieldInvoiceDate:
		rec.InvoiceDate = value
	case FieldInvoiceNumber:
		rec.InvoiceNumber = value
	case FieldSupplierName:
		rec.SupplierName = value
	case FieldClientName:
		rec.ClientName = value
	case FieldTotalExclTax:
		rec.TotalExcludingTax = value
	case FieldTotalInclTax:
		rec.TotalIncludingTax = value
	case FieldTaxAmount:
		rec.TaxAmount = value
	}
}
