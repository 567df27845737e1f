package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

func (f fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return f.run(ctx, name, args...)
}

func newTestExtractor(r Runner) *Extractor {
	e := NewExtractor(Config{Languages: []string{"fra", "eng"}}, slog.Default())
	e.runner = r
	return e
}

func TestExtractTextImage(t *testing.T) {
	var gotArgs []string
	e := newTestExtractor(fakeRunner{run: func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, "tesseract", name)
		gotArgs = args
		return []byte("Facture N° 42\r\nTotal: 10€\n"), nil, nil
	}})

	text, err := e.ExtractText(context.Background(), []byte("\x89PNG not really"), "img")
	require.NoError(t, err)
	assert.Equal(t, "Facture N° 42\nTotal: 10€", text)

	require.Len(t, gotArgs, 4)
	assert.Equal(t, "stdout", gotArgs[1])
	assert.Equal(t, "fra+eng", gotArgs[3])
}

func TestExtractTextPDF(t *testing.T) {
	e := newTestExtractor(fakeRunner{run: func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		switch name {
		case "pdftoppm":
			prefix := args[len(args)-1]
			for i := 1; i <= 2; i++ {
				require.NoError(t, os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600))
			}
			return nil, nil, nil
		case "tesseract":
			page := filepath.Base(args[0])
			return []byte("texte de " + page), nil, nil
		default:
			t.Fatalf("unexpected command %q", name)
			return nil, nil, nil
		}
	}})

	text, err := e.ExtractText(context.Background(), []byte("%PDF-1.7 fake"), "doc")
	require.NoError(t, err)
	assert.True(t, strings.Contains(text, "texte de page-1.png"))
	assert.True(t, strings.Contains(text, "texte de page-2.png"))
	assert.True(t, strings.Contains(text, "\f"), "pages should be separated by a form feed")
}

func TestExtractTextPDFNoPages(t *testing.T) {
	e := newTestExtractor(fakeRunner{run: func(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
		require.Equal(t, "pdftoppm", name)
		return nil, nil, nil // renders nothing
	}})

	_, err := e.ExtractText(context.Background(), []byte("%PDF-1.4"), "doc")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotInstalled))
}

func TestExtractTextMissingBinaryIsFatal(t *testing.T) {
	e := newTestExtractor(fakeRunner{run: func(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
		return nil, nil, &exec.Error{Name: name, Err: exec.ErrNotFound}
	}})

	_, err := e.ExtractText(context.Background(), []byte("%PDF-1.4"), "doc")
	assert.ErrorIs(t, err, ErrNotInstalled)

	_, err = e.ExtractText(context.Background(), []byte("not a pdf"), "img")
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestExtractTextRuntimeFailureIsNotFatal(t *testing.T) {
	e := newTestExtractor(fakeRunner{run: func(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
		return nil, []byte("boom"), errors.New("exit status 1")
	}})

	_, err := e.ExtractText(context.Background(), []byte("%PDF-1.4"), "doc")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotInstalled))
}

func TestExtractTextSkipsFailedPages(t *testing.T) {
	e := newTestExtractor(fakeRunner{run: func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		switch name {
		case "pdftoppm":
			prefix := args[len(args)-1]
			for i := 1; i <= 2; i++ {
				require.NoError(t, os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600))
			}
			return nil, nil, nil
		default:
			if strings.HasSuffix(args[0], "page-1.png") {
				return nil, nil, errors.New("exit status 1")
			}
			return []byte("seulement la page deux"), nil, nil
		}
	}})

	text, err := e.ExtractText(context.Background(), []byte("%PDF-1.4"), "doc")
	require.NoError(t, err)
	assert.Equal(t, "seulement la page deux", text)
}
