// Package webhook is the aggregator in front of the extraction pipeline: it
// accepts form-builder submissions, fans out over their attachments and
// mails back one workbook per submission. Per-document failures shrink the
// result; only a fatal OCR configuration error aborts a submission.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tallyrelay/invoice-processor/internal/entity"
	"github.com/tallyrelay/invoice-processor/internal/export"
	"github.com/tallyrelay/invoice-processor/internal/mailer"
	"github.com/tallyrelay/invoice-processor/internal/metrics"
	"github.com/tallyrelay/invoice-processor/internal/ocr"
)

// Processor yields exactly one record per document; see pipeline.Pipeline.
type Processor interface {
	Process(ctx context.Context, data []byte, label, preferredClientName string) (entity.ExtractedInvoice, error)
}

// Downloader fetches one attachment URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Exporter renders the collected rows to workbook bytes.
type Exporter interface {
	BuildWorkbook(rows []entity.ExtractedInvoice) ([]byte, error)
}

// Mailer delivers the workbook to the respondent.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, filename string, attachment []byte) error
}

// Archiver persists the rows of one submission. Optional.
type Archiver interface {
	SaveBatch(ctx context.Context, submissionID uuid.UUID, labels []string, rows []entity.ExtractedInvoice) error
}

type Handler struct {
	secret     string
	downloader Downloader
	processor  Processor
	exporter   Exporter
	mailer     Mailer
	archiver   Archiver // nil when archiving is disabled
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewHandler(
	secret string,
	downloader Downloader,
	processor Processor,
	exporter Exporter,
	mailer Mailer,
	archiver Archiver,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Handler{
		secret:     secret,
		downloader: downloader,
		processor:  processor,
		exporter:   exporter,
		mailer:     mailer,
		archiver:   archiver,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Register mounts the webhook and operational routes.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/tally-webhook", h.handleWebhook)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
}

func (h *Handler) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.metrics.RecordSubmission("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Unreadable body"})
		return
	}

	if !VerifySignature(h.secret, body, c.GetHeader("Tally-Signature")) {
		h.logger.Warn("webhook.signature.invalid")
		h.metrics.RecordSubmission("bad_signature")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid signature"})
		return
	}

	sub, err := ParseSubmission(body)
	if err != nil {
		h.logger.Warn("webhook.payload.invalid", "error", err)
		h.metrics.RecordSubmission("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid JSON"})
		return
	}

	if !sub.Consent {
		h.metrics.RecordSubmission("no_consent")
		c.JSON(http.StatusOK, gin.H{"status": "no_consent"})
		return
	}
	if sub.Email == "" || len(sub.FileURLs) == 0 {
		h.logger.Warn("webhook.payload.incomplete", "has_email", sub.Email != "", "files", len(sub.FileURLs))
		h.metrics.RecordSubmission("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Missing email or files"})
		return
	}

	submissionID := uuid.New()
	ctx := c.Request.Context()

	var rows []entity.ExtractedInvoice
	var labels []string
	for idx, url := range sub.FileURLs {
		label := fmt.Sprintf("file_%d", idx)

		data, err := h.downloader.Download(ctx, url)
		if err != nil {
			h.logger.Warn("webhook.download.failed", "submission_id", submissionID.String(), "url", url, "error", err)
			h.metrics.RecordDocument("download_failed")
			continue
		}

		rec, err := h.processor.Process(ctx, data, label, sub.Name)
		if err != nil {
			if errors.Is(err, ocr.ErrNotInstalled) {
				h.logger.Error("webhook.ocr.misconfigured", "submission_id", submissionID.String(), "error", err)
				h.metrics.RecordSubmission("config_error")
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "Server missing pdftoppm/tesseract for document processing"})
				return
			}
			// the pipeline absorbs everything else; treat a stray error
			// like a document that produced nothing
			h.logger.Warn("webhook.extract.failed", "submission_id", submissionID.String(), "label", label, "error", err)
			h.metrics.RecordDocument("empty")
			continue
		}

		h.metrics.RecordDocument("extracted")
		rows = append(rows, rec)
		labels = append(labels, label)
	}

	if len(rows) == 0 {
		h.logger.Warn("webhook.no_data", "submission_id", submissionID.String())
		h.metrics.RecordSubmission("no_data")
		c.JSON(http.StatusOK, gin.H{"status": "no_data_extracted"})
		return
	}

	if h.archiver != nil {
		if err := h.archiver.SaveBatch(ctx, submissionID, labels, rows); err != nil {
			// archiving is best-effort; the respondent still gets their mail
			h.logger.Error("webhook.archive.failed", "submission_id", submissionID.String(), "error", err)
		}
	}

	workbook, err := h.exporter.BuildWorkbook(rows)
	if err != nil {
		h.logger.Error("webhook.export.failed", "submission_id", submissionID.String(), "error", err)
		h.metrics.RecordSubmission("export_error")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Excel generation failed"})
		return
	}

	filename := export.Filename(h.now())
	if err := h.mailer.Send(ctx, sub.Email, mailer.Subject, mailer.BodyHTML, filename, workbook); err != nil {
		h.logger.Error("webhook.mail.failed", "submission_id", submissionID.String(), "error", err)
		h.metrics.RecordEmail("failed")
		h.metrics.RecordSubmission("email_failed")
		c.JSON(http.StatusOK, gin.H{"status": "email_failed"})
		return
	}

	h.metrics.RecordEmail("sent")
	h.metrics.RecordSubmission("ok")
	h.logger.Info("webhook.submission.done",
		"submission_id", submissionID.String(),
		"documents", len(sub.FileURLs),
		"rows", len(rows),
	)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "filename": filename})
}
