package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Webhook.TallySecret)
	assert.Equal(t, "pdftoppm", cfg.OCR.Pdftoppm)
	assert.Equal(t, "tesseract", cfg.OCR.Tesseract)
	assert.Equal(t, []string{"fra", "eng"}, cfg.OCR.Languages)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Zero(t, cfg.OCR.MaxPages)
	assert.True(t, cfg.OCR.EnhanceImages)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, int64(25<<20), cfg.Fetch.MaxBytes)
	assert.Empty(t, cfg.Archive.DSN)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TALLY_SECRET", "topsecret")
	t.Setenv("OCR_LANGS", "deu")
	t.Setenv("OCR_DPI", "150")
	t.Setenv("OCR_ENHANCE_IMAGES", "false")
	t.Setenv("DOWNLOAD_TIMEOUT", "90s")
	t.Setenv("ARCHIVE_DSN", "postgres://localhost/invoices")

	cfg := LoadConfig()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "topsecret", cfg.Webhook.TallySecret)
	assert.Equal(t, []string{"deu"}, cfg.OCR.Languages)
	assert.Equal(t, 150, cfg.OCR.DPI)
	assert.False(t, cfg.OCR.EnhanceImages)
	assert.Equal(t, 90*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "postgres://localhost/invoices", cfg.Archive.DSN)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("OCR_DPI", "very high")
	t.Setenv("OCR_ENHANCE_IMAGES", "maybe")
	t.Setenv("DOWNLOAD_TIMEOUT", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.True(t, cfg.OCR.EnhanceImages)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Addr: ":8080"},
			OCR:    OCRConfig{Languages: []string{"fra"}},
			Mail:   MailConfig{SendGridAPIKey: "SG.key", SenderEmail: "bot@example.com"},
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Server.Addr = ":"
	assert.ErrorContains(t, cfg.Validate(), "PORT")

	cfg = valid()
	cfg.Mail.SendGridAPIKey = ""
	assert.ErrorContains(t, cfg.Validate(), "SENDGRID_API_KEY")

	cfg = valid()
	cfg.Mail.SenderEmail = ""
	assert.ErrorContains(t, cfg.Validate(), "SENDER_EMAIL")

	cfg = valid()
	cfg.OCR.Languages = nil
	assert.ErrorContains(t, cfg.Validate(), "OCR_LANGS")
}

func TestSplitLangs(t *testing.T) {
	assert.Equal(t, []string{"fra", "eng"}, splitLangs("fra+eng"))
	assert.Equal(t, []string{"fra", "eng"}, splitLangs("fra, eng"))
	assert.Equal(t, []string{"fra"}, splitLangs("fra"))
	assert.Nil(t, splitLangs(""))
	assert.Nil(t, splitLangs("++,"))
}
