// Package pipeline glues text acquisition to field extraction under a
// strict totality contract: one input document in, exactly one record out.
// The single exception is a fatal OCR deployment error, which is allowed to
// escape so operators see it instead of a stream of empty rows.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tallyrelay/invoice-processor/internal/entity"
	"github.com/tallyrelay/invoice-processor/internal/fields"
	"github.com/tallyrelay/invoice-processor/internal/ocr"
)

// TextAcquirer is the boundary to the OCR collaborators: document bytes in,
// flat text out.
type TextAcquirer interface {
	ExtractText(ctx context.Context, data []byte, label string) (string, error)
}

type Pipeline struct {
	acquirer  TextAcquirer
	extractor *fields.Extractor
	logger    *slog.Logger
}

func New(acquirer TextAcquirer, extractor *fields.Extractor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{acquirer: acquirer, extractor: extractor, logger: logger}
}

// Process turns one document into one ExtractedInvoice. Acquisition faults
// on the document itself (corrupt file, OCR runtime failure) degrade to an
// empty text blob so the record still materializes with empty fields; only
// ocr.ErrNotInstalled is returned, and then without a record.
func (p *Pipeline) Process(ctx context.Context, data []byte, label, preferredClientName string) (entity.ExtractedInvoice, error) {
	text, err := p.acquirer.ExtractText(ctx, data, label)
	if err != nil {
		if errors.Is(err, ocr.ErrNotInstalled) {
			p.logger.Error("pipeline.ocr.not_installed", "label", label, "error", err)
			return entity.ExtractedInvoice{}, err
		}
		p.logger.Warn("pipeline.acquisition.failed", "label", label, "error", err)
		text = ""
	}

	rec := p.extractor.Extract(text, fields.Options{
		Label:               label,
		PreferredClientName: preferredClientName,
	})
	p.logger.Info("pipeline.document.done",
		"label", label,
		"text_bytes", len(text),
		"invoice_number", rec.InvoiceNumber,
		"invoice_date", rec.InvoiceDate,
	)
	return rec, nil
}
