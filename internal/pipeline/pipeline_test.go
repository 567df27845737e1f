package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyrelay/invoice-processor/internal/fields"
	"github.com/tallyrelay/invoice-processor/internal/ocr"
)

type stubAcquirer struct {
	text string
	err  error
}

func (s stubAcquirer) ExtractText(context.Context, []byte, string) (string, error) {
	return s.text, s.err
}

func newPipeline(a TextAcquirer) *Pipeline {
	return New(a, fields.NewExtractor(slog.Default()), slog.Default())
}

func TestProcessSuccess(t *testing.T) {
	p := newPipeline(stubAcquirer{text: "Facture N° 7\nTotal TTC: 99,00€"})

	rec, err := p.Process(context.Background(), []byte("doc"), "file_0", "")
	require.NoError(t, err)
	assert.Equal(t, "7", rec.InvoiceNumber)
	assert.Equal(t, "99,00€", rec.TotalIncludingTax)
	assert.NotEmpty(t, rec.CapturedAt)
}

func TestProcessAbsorbsAcquisitionFaults(t *testing.T) {
	p := newPipeline(stubAcquirer{err: errors.New("corrupt file")})

	rec, err := p.Process(context.Background(), []byte("doc"), "file_0", "")
	require.NoError(t, err, "per-document faults must not abort the batch")

	assert.NotEmpty(t, rec.CapturedAt)
	assert.Empty(t, rec.ClientName)
	assert.Empty(t, rec.SupplierName)
	assert.Empty(t, rec.InvoiceDate)
	assert.Empty(t, rec.InvoiceNumber)
	assert.Empty(t, rec.TotalExcludingTax)
	assert.Empty(t, rec.TotalIncludingTax)
	assert.Empty(t, rec.TaxAmount)
}

func TestProcessPropagatesFatalConfiguration(t *testing.T) {
	p := newPipeline(stubAcquirer{err: fmt.Errorf("pdftoppm: %w", ocr.ErrNotInstalled)})

	_, err := p.Process(context.Background(), []byte("doc"), "file_0", "")
	assert.ErrorIs(t, err, ocr.ErrNotInstalled)
}

func TestProcessPreferredClientName(t *testing.T) {
	p := newPipeline(stubAcquirer{text: "Client: Heuristique"})

	rec, err := p.Process(context.Background(), []byte("doc"), "file_0", "Nom Fiable")
	require.NoError(t, err)
	assert.Equal(t, "Nom Fiable", rec.ClientName)
}
