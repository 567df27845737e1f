// Command extract runs the pipeline over local files, without the webhook
// or mail legs: paths in, one XLSX out. Useful for tuning the matchers
// against a folder of sample invoices.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tallyrelay/invoice-processor/internal/common"
	"github.com/tallyrelay/invoice-processor/internal/entity"
	"github.com/tallyrelay/invoice-processor/internal/export"
	"github.com/tallyrelay/invoice-processor/internal/fields"
	"github.com/tallyrelay/invoice-processor/internal/ocr"
	"github.com/tallyrelay/invoice-processor/internal/pipeline"
)

func main() {
	out := flag.String("out", "", "output XLSX path (default: invoices_<timestamp>.xlsx)")
	client := flag.String("client", "", "client name to force into every row")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		logger.Error("usage", "cmd", "extract [-out file.xlsx] [-client name] <file>...")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		Languages:     cfg.OCR.Languages,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		EnhanceImages: cfg.OCR.EnhanceImages,
	}, logger)
	pipe := pipeline.New(ocrx, fields.NewExtractor(logger), logger)

	ctx := context.Background()

	var rows []entity.ExtractedInvoice
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}

		rec, err := pipe.Process(ctx, data, filepath.Base(path), *client)
		if err != nil {
			if errors.Is(err, ocr.ErrNotInstalled) {
				logger.Error("ocr dependencies missing", "error", err)
				os.Exit(1)
			}
			logger.Warn("extraction failed", "path", path, "error", err)
			continue
		}
		rows = append(rows, rec)
	}

	if len(rows) == 0 {
		logger.Error("no rows extracted")
		os.Exit(1)
	}

	workbook, err := export.NewService(logger).BuildWorkbook(rows)
	if err != nil {
		logger.Error("building workbook", "error", err)
		os.Exit(1)
	}

	target := *out
	if target == "" {
		target = export.Filename(time.Now())
	}
	if err := os.WriteFile(target, workbook, 0o644); err != nil {
		logger.Error("writing workbook", "path", target, "error", err)
		os.Exit(1)
	}
	logger.Info("workbook written", "path", target, "rows", len(rows))
}
