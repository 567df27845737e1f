package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tallyrelay/invoice-processor/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	submission_id  TEXT    NOT NULL,
	row_index      INTEGER NOT NULL,
	source_label   TEXT    NOT NULL DEFAULT '',
	captured_at    TEXT    NOT NULL,
	client_name    TEXT    NOT NULL DEFAULT '',
	supplier_name  TEXT    NOT NULL DEFAULT '',
	invoice_date   TEXT    NOT NULL DEFAULT '',
	invoice_number TEXT    NOT NULL DEFAULT '',
	total_excl_tax TEXT    NOT NULL DEFAULT '',
	total_incl_tax TEXT    NOT NULL DEFAULT '',
	tax_amount     TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (submission_id, row_index)
)`

// ExtractionStore archives the rows produced for each webhook submission.
type ExtractionStore struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// NewExtractionStore opens the store and bootstraps the schema.
func NewExtractionStore(ctx context.Context, dsn string, logger *slog.Logger) (*ExtractionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, driver, err := Open(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &ExtractionStore{db: db, driver: driver, logger: logger}, nil
}

func (s *ExtractionStore) Close() error {
	return s.db.Close()
}

// SaveBatch inserts every row of one submission in a single transaction.
func (s *ExtractionStore) SaveBatch(ctx context.Context, submissionID uuid.UUID, labels []string, rows []entity.ExtractedInvoice) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO extractions (
		submission_id, row_index, source_label, captured_at,
		client_name, supplier_name, invoice_date, invoice_number,
		total_excl_tax, total_incl_tax, tax_amount
	) VALUES (%s)`, s.placeholders(11))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range rows {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		if _, err := stmt.ExecContext(ctx,
			submissionID.String(), i, label, rec.CapturedAt,
			rec.ClientName, rec.SupplierName, rec.InvoiceDate, rec.InvoiceNumber,
			rec.TotalExcludingTax, rec.TotalIncludingTax, rec.TaxAmount,
		); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("archive.saved", "submission_id", submissionID.String(), "rows", len(rows))
	return nil
}

// CountBySubmission reports how many rows a submission archived.
func (s *ExtractionStore) CountBySubmission(ctx context.Context, submissionID uuid.UUID) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM extractions WHERE submission_id = %s", s.placeholder(1))
	var n int
	if err := s.db.QueryRowContext(ctx, query, submissionID.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (s *ExtractionStore) placeholder(n int) string {
	if s.driver == "pgx" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *ExtractionStore) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}
