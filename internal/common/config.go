package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Webhook WebhookConfig
	OCR     OCRConfig
	Mail    MailConfig
	Fetch   FetchConfig
	Archive ArchiveConfig

	LogLevel string
}

type ServerConfig struct {
	Addr string
}

type WebhookConfig struct {
	// TallySecret enables HMAC verification of incoming webhooks when set.
	TallySecret string
}

type OCRConfig struct {
	Pdftoppm      string
	Tesseract     string
	Languages     []string
	DPI           int
	MaxPages      int
	EnhanceImages bool
}

type MailConfig struct {
	SendGridAPIKey string
	SenderEmail    string
}

type FetchConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

type ArchiveConfig struct {
	// DSN selects the archive store: postgres://... or a sqlite path.
	// Empty disables archiving.
	DSN string
}

// LoadConfig reads configuration from the environment, after loading a
// .env file when one is present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Addr: ":" + getEnv("PORT", "8080"),
		},
		Webhook: WebhookConfig{
			TallySecret: getEnv("TALLY_SECRET", ""),
		},
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Languages:     splitLangs(getEnv("OCR_LANGS", "fra+eng")),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			EnhanceImages: getEnvAsBool("OCR_ENHANCE_IMAGES", true),
		},
		Mail: MailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			SenderEmail:    getEnv("SENDER_EMAIL", "no-reply@example.com"),
		},
		Fetch: FetchConfig{
			Timeout:  getEnvAsDuration("DOWNLOAD_TIMEOUT", 30*time.Second),
			MaxBytes: int64(getEnvAsInt("DOWNLOAD_MAX_BYTES", 25<<20)),
		},
		Archive: ArchiveConfig{
			DSN: getEnv("ARCHIVE_DSN", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the parts the server cannot run without.
func (c *Config) Validate() error {
	if c.Server.Addr == "" || c.Server.Addr == ":" {
		return NewAppError("CONFIG_ERROR", "PORT is required", ErrInvalidInput)
	}
	if c.Mail.SendGridAPIKey == "" {
		return NewAppError("CONFIG_ERROR", "SENDGRID_API_KEY is required", ErrInvalidInput)
	}
	if c.Mail.SenderEmail == "" {
		return NewAppError("CONFIG_ERROR", "SENDER_EMAIL is required", ErrInvalidInput)
	}
	if len(c.OCR.Languages) == 0 {
		return NewAppError("CONFIG_ERROR", "OCR_LANGS is required", ErrInvalidInput)
	}
	return nil
}

// splitLangs parses "fra+eng" (also tolerating commas) into language codes.
func splitLangs(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
