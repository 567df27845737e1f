package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tallyrelay/invoice-processor/constants"
)

// ErrNotInstalled marks a fatal deployment problem: a required OCR binary
// (pdftoppm or tesseract) is absent from the host. Callers must not absorb
// it the way they absorb per-document faults, or the operator never learns
// that every extraction is silently coming back empty.
var ErrNotInstalled = errors.New("ocr dependency not installed")

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Languages []string // tesseract language codes, joined with "+"
	DPI       int      // rasterization DPI for PDFs, default 300
	MaxPages  int      // 0 = no limit

	// EnhanceImages runs grayscale/contrast/sharpen preprocessing on image
	// inputs before OCR. PDF page renders are left as pdftoppm produced them.
	EnhanceImages bool
}

// Extractor turns raw document bytes into OCR text. It owns no state beyond
// its configuration, so one instance serves concurrent callers.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"fra", "eng"}
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// ExtractText writes the bytes to a scratch file and picks a strategy from
// the content: PDF bytes go through pdftoppm then per-page tesseract, image
// bytes go straight to tesseract. The returned text is normalized.
func (e *Extractor) ExtractText(ctx context.Context, data []byte, label string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "ivp-ocr-*")
	if err != nil {
		return "", fmt.Errorf("scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("ocr.scratch.cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	in := filepath.Join(tmpDir, "input")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return "", fmt.Errorf("write input: %w", err)
	}

	var text string
	switch constants.SniffFormat(data) {
	case constants.PDF:
		text, err = e.pdfToText(ctx, in, tmpDir, label)
	default:
		text, err = e.imageToText(ctx, in, label)
	}
	if err != nil {
		return "", err
	}
	return Normalize(text), nil
}

func (e *Extractor) pdfToText(ctx context.Context, path, tmpDir, label string) (string, error) {
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in> <tmp/page>
	_, _, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", e.classify(e.cfg.Pdftoppm, err)
	}

	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("pdftoppm rendered no pages for %s", label)
	}

	var b strings.Builder
	for _, page := range pages {
		txt, err := e.tesseract(ctx, page)
		if err != nil {
			if errors.Is(err, ErrNotInstalled) {
				return "", err
			}
			// one bad page must not sink the document
			e.logger.Warn("ocr.page.failed", "label", label, "page", filepath.Base(page), "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}
	return b.String(), nil
}

func (e *Extractor) imageToText(ctx context.Context, path, label string) (string, error) {
	if e.cfg.EnhanceImages {
		enhanced, err := enhanceForOCR(path)
		if err != nil {
			// the raw image may still OCR fine
			e.logger.Warn("ocr.enhance.failed", "label", label, "error", err)
		} else {
			path = enhanced
		}
	}
	return e.tesseract(ctx, path)
}

func (e *Extractor) tesseract(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <langs>
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", strings.Join(e.cfg.Languages, "+"))
	if err != nil {
		return "", e.classify(e.cfg.Tesseract, err)
	}
	return string(out), nil
}

// classify separates "the binary does not exist" from every other exec
// failure. Only the former is a configuration error.
func (e *Extractor) classify(binary string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s: %w", binary, ErrNotInstalled)
	}
	return fmt.Errorf("%s: %w", binary, err)
}
