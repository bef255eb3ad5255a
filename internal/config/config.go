package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/pdfdancer/internal/transport"
)

const defaultBaseURL = "https://api.pdfdancer.com"

type Config struct {
	Port string

	// PDFDancer service
	BaseURL string
	Token   string
	Timeout time.Duration

	// Retry
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	RetryJitter       float64

	// Auth for the inspector API
	InspectAPIKey string

	// Upload limits
	MaxUploadBytes int64

	// Rolling window for HTTP stats
	StatsWindow time.Duration

	// Document to open at startup. Empty means a blank document.
	PDFPath string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		BaseURL: envOr("PDFDANCER_BASE_URL", defaultBaseURL),
		Token:   envOr("PDFDANCER_API_TOKEN", os.Getenv("PDFDANCER_TOKEN")),
		Timeout: envDuration("PDFDANCER_TIMEOUT", 60*time.Second),

		RetryMaxAttempts:  envInt("PDFDANCER_RETRY_MAX_ATTEMPTS", 3),
		RetryInitialDelay: envDuration("PDFDANCER_RETRY_INITIAL_DELAY", 1*time.Second),
		RetryMaxDelay:     envDuration("PDFDANCER_RETRY_MAX_DELAY", 5*time.Second),
		RetryJitter:       envFloat("PDFDANCER_RETRY_JITTER", 0),

		InspectAPIKey: os.Getenv("INSPECT_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		PDFPath: os.Getenv("PDF_PATH"),
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 3
	}
	if cfg.RetryInitialDelay < 0 {
		cfg.RetryInitialDelay = 1 * time.Second
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 5 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("PDFDANCER_BASE_URL is required")
	}
	if c.InspectAPIKey == "" {
		return fmt.Errorf("INSPECT_API_KEY is required")
	}
	if _, err := c.RetryPolicy(); err != nil {
		return fmt.Errorf("retry settings: %w", err)
	}
	return nil
}

// RetryPolicy builds the transport retry policy from the PDFDANCER_RETRY_*
// settings.
func (c Config) RetryPolicy() (transport.RetryPolicy, error) {
	return transport.NewRetryPolicy(
		transport.WithMaxAttempts(c.RetryMaxAttempts),
		transport.WithInitialDelay(c.RetryInitialDelay),
		transport.WithMaxDelay(c.RetryMaxDelay),
		transport.WithJitter(c.RetryJitter),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
