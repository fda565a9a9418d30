// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// ErrMissingSecret is returned by RequireServer when no session secret is set.
var ErrMissingSecret = errors.New("AUTOMATRIX_JWT_SECRET is required")

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr   string
	DBPath       string
	PublicURL    string
	WorkflowsDir string

	SupabaseURL     string
	SupabaseAnonKey string
	AuthProviders   []string
	JWTSecret       string
	SessionTTL      time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePricePro      string
	StripePriceBusiness string

	AutomationWebhookURL string
	AutomationTimeout    time.Duration
	ChatRateLimit        int

	CatalogRepo     string
	CatalogPath     string
	CatalogRef      string
	CatalogToken    string
	CatalogInterval time.Duration

	LogLevel  slog.Level
	LogFormat string
}

// HasPayments reports whether both Stripe secrets are present. Without them
// billing endpoints answer 503.
func (c *Config) HasPayments() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

// HasAuth reports whether hosted sign-in is configured.
func (c *Config) HasAuth() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// HasAutomation reports whether the chat webhook is configured.
func (c *Config) HasAutomation() bool {
	return c.AutomationWebhookURL != ""
}

// HasCatalog reports whether a catalog repository is configured for sync.
func (c *Config) HasCatalog() bool {
	return c.CatalogRepo != ""
}

// SecureCookies is true when the public URL is served over HTTPS.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicURL, "https://")
}

// Prices maps each paid tier to its configured Stripe price id. Tiers without
// a price are omitted.
func (c *Config) Prices() map[model.Tier]string {
	prices := make(map[model.Tier]string, 2)
	if c.StripePricePro != "" {
		prices[model.TierPro] = c.StripePricePro
	}
	if c.StripePriceBusiness != "" {
		prices[model.TierBusiness] = c.StripePriceBusiness
	}
	return prices
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RequireServer checks the settings only the HTTP server needs.
func (c *Config) RequireServer() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

// Load reads configuration from environment variables and returns a parsed Config.
// A .env file in the working directory is read first when present; variables
// already set in the environment take precedence over it.
// Payment, auth, automation and catalog settings are optional; the features
// that need them stay disabled until they are provided.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg := &Config{
		ListenAddr:   env("AUTOMATRIX_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:       env("AUTOMATRIX_DB_PATH", "automatrix.db"),
		PublicURL:    strings.TrimSuffix(env("AUTOMATRIX_PUBLIC_URL", "http://localhost:8080"), "/"),
		WorkflowsDir: env("AUTOMATRIX_WORKFLOWS_DIR", "workflows"),

		SupabaseURL:     strings.TrimSuffix(os.Getenv("AUTOMATRIX_SUPABASE_URL"), "/"),
		SupabaseAnonKey: os.Getenv("AUTOMATRIX_SUPABASE_ANON_KEY"),
		AuthProviders:   splitList(env("AUTOMATRIX_AUTH_PROVIDERS", "github,google")),
		JWTSecret:       os.Getenv("AUTOMATRIX_JWT_SECRET"),

		StripeSecretKey:     os.Getenv("AUTOMATRIX_STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("AUTOMATRIX_STRIPE_WEBHOOK_SECRET"),
		StripePricePro:      os.Getenv("AUTOMATRIX_STRIPE_PRICE_PRO"),
		StripePriceBusiness: os.Getenv("AUTOMATRIX_STRIPE_PRICE_BUSINESS"),

		AutomationWebhookURL: os.Getenv("AUTOMATRIX_AUTOMATION_WEBHOOK_URL"),

		CatalogRepo:  os.Getenv("AUTOMATRIX_CATALOG_REPO"),
		CatalogPath:  env("AUTOMATRIX_CATALOG_PATH", "workflows"),
		CatalogRef:   os.Getenv("AUTOMATRIX_CATALOG_REF"),
		CatalogToken: os.Getenv("AUTOMATRIX_CATALOG_TOKEN"),

		LogFormat: strings.ToLower(env("AUTOMATRIX_LOG_FORMAT", "text")),
	}

	if u, err := url.Parse(cfg.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("AUTOMATRIX_PUBLIC_URL must be an absolute URL, got %q", cfg.PublicURL)
	}

	var err error
	if cfg.SessionTTL, err = duration("AUTOMATRIX_SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AutomationTimeout, err = duration("AUTOMATRIX_AUTOMATION_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CatalogInterval, err = duration("AUTOMATRIX_CATALOG_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	cfg.ChatRateLimit = 20
	if v, ok := os.LookupEnv("AUTOMATRIX_CHAT_RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("AUTOMATRIX_CHAT_RATE_LIMIT must be a non-negative integer, got %q", v)
		}
		cfg.ChatRateLimit = n
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(env("AUTOMATRIX_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("AUTOMATRIX_LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("AUTOMATRIX_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func splitList(v string) []string {
	items := []string{}
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
