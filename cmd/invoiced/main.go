package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallyrelay/invoice-processor/internal/common"
	"github.com/tallyrelay/invoice-processor/internal/export"
	"github.com/tallyrelay/invoice-processor/internal/fetch"
	"github.com/tallyrelay/invoice-processor/internal/fields"
	"github.com/tallyrelay/invoice-processor/internal/mailer"
	"github.com/tallyrelay/invoice-processor/internal/metrics"
	"github.com/tallyrelay/invoice-processor/internal/ocr"
	"github.com/tallyrelay/invoice-processor/internal/pipeline"
	"github.com/tallyrelay/invoice-processor/internal/repository"
	"github.com/tallyrelay/invoice-processor/internal/webhook"
)

func main() {
	cfg := common.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		Languages:     cfg.OCR.Languages,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		EnhanceImages: cfg.OCR.EnhanceImages,
	}, logger)
	extractor := fields.NewExtractor(logger)
	pipe := pipeline.New(ocrx, extractor, logger)

	var archiver webhook.Archiver
	if cfg.Archive.DSN != "" {
		store, err := repository.NewExtractionStore(ctx, cfg.Archive.DSN, logger)
		if err != nil {
			logger.Error("opening archive store", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Error("closing archive store", "error", cerr)
			}
		}()
		archiver = store
	}

	m := metrics.New()
	handler := webhook.NewHandler(
		cfg.Webhook.TallySecret,
		fetch.NewClient(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes),
		pipe,
		export.NewService(logger),
		mailer.NewSendGrid(cfg.Mail.SendGridAPIKey, cfg.Mail.SenderEmail, logger),
		archiver,
		m,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.Register(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("serving", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
