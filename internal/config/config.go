package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pauljones0/kiosk-listings/internal/validator"
)

const (
	DefaultAPIBaseURL   = "https://api.artsy.net"
	DefaultPageSize     = 10
	DefaultMaxPages     = 100
	DefaultSyncInterval = 60 * time.Second
	DefaultFetchTimeout = 30 * time.Second
	DefaultFetchRetries = 2
	DefaultFetchRate    = 5.0
	DefaultPort         = "8080"
)

type Config struct {
	AuctionID         string        `validate:"required"`
	APIBaseURL        string        `validate:"required,url"`
	XappToken         string
	PageSize          int           `validate:"gt=0"`
	MaxPages          int           `validate:"gt=0"`
	SyncInterval      time.Duration `validate:"gte=0"`
	FetchTimeout      time.Duration `validate:"gt=0"`
	FetchRetries      int           `validate:"gte=0"`
	FetchRate         float64       `validate:"gt=0"`
	Port              string        `validate:"required"`
	ProjectID         string
	DiscordWebhookURL string `validate:"omitempty,url"`
}

func Load() (*Config, error) {
	auctionID := os.Getenv("AUCTION_ID")
	if auctionID == "" {
		return nil, fmt.Errorf("AUCTION_ID environment variable is required but not set")
	}

	xappToken := os.Getenv("XAPP_TOKEN")
	if xappToken == "" {
		slog.Warn("XAPP_TOKEN not set, requests will be sent without an API token")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
		slog.Info("Defaulting to port", "port", port)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		slog.Warn("GOOGLE_CLOUD_PROJECT not set, Firestore mirror will be skipped")
	}

	discordWebhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	if discordWebhookURL == "" {
		slog.Warn("DISCORD_WEBHOOK_URL not set, Discord alerts will be skipped")
	}

	cfg := &Config{
		AuctionID:         auctionID,
		APIBaseURL:        getenv("API_BASE_URL", DefaultAPIBaseURL),
		XappToken:         xappToken,
		Port:              port,
		ProjectID:         projectID,
		DiscordWebhookURL: discordWebhookURL,
	}

	var err error
	if cfg.PageSize, err = intVar("PAGE_SIZE", DefaultPageSize); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = intVar("MAX_PAGES", DefaultMaxPages); err != nil {
		return nil, err
	}
	if cfg.FetchRetries, err = intVar("FETCH_RETRIES", DefaultFetchRetries); err != nil {
		return nil, err
	}
	if cfg.SyncInterval, err = durationVar("SYNC_INTERVAL", DefaultSyncInterval); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = durationVar("FETCH_TIMEOUT", DefaultFetchTimeout); err != nil {
		return nil, err
	}
	if cfg.FetchRate, err = floatVar("FETCH_RATE", DefaultFetchRate); err != nil {
		return nil, err
	}

	if err := validator.Default().ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intVar(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}

func floatVar(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}

// durationVar accepts Go durations ("90s", "5m") and bare seconds ("0", "60").
func durationVar(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
