package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/air-quality-client/internal/airquality"
	"github.com/i474232898/air-quality-client/pkg/breezometer"
)

type AppConfig struct {
	// BreezoMeter client settings.
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int // 0 = client default, -1 = no retries
	UserAgent  string
	Lang       string

	// BreakerEnabled guards provider calls with a circuit breaker.
	BreakerEnabled bool

	// PollInterval controls how often tracked locations are polled (0 = never).
	PollInterval time.Duration
	PollTimeout  time.Duration

	// Locations to track.
	Locations      []airquality.Location
	GeocoderAPIKey string

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	Port     string
	LogLevel string
	// ClientLog selects where the client logs: fiber, std or none.
	ClientLog string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	var err error
	cfg := &AppConfig{}

	cfg.APIKey = getenv("BREEZOMETER_API_KEY")
	cfg.BaseURL = getenv("BREEZOMETER_BASE_URL")
	cfg.UserAgent = getenv("BREEZOMETER_USER_AGENT")
	cfg.Lang = getenv("BREEZOMETER_LANG")
	switch breezometer.Lang(cfg.Lang) {
	case "", breezometer.LangEnglish, breezometer.LangHebrew:
	default:
		return nil, fmt.Errorf("invalid BREEZOMETER_LANG: %q (use %s or %s)", cfg.Lang, breezometer.LangEnglish, breezometer.LangHebrew)
	}

	if cfg.Timeout, err = getenvDuration(getenv, "BREEZOMETER_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if v := getenv("BREEZOMETER_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid BREEZOMETER_MAX_RETRIES: %q", v)
		}
		cfg.MaxRetries = n
		if n == 0 {
			cfg.MaxRetries = -1
		}
	}

	cfg.BreakerEnabled = getenvBool(getenv, "BREAKER_ENABLED", false)

	// Poll interval: default 15 minutes.
	if cfg.PollInterval, err = getenvDuration(getenv, "POLL_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.PollTimeout, err = getenvDuration(getenv, "POLL_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt(getenv, "STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration(getenv, "STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.GeocoderAPIKey = getenv("GEOCODER_API_KEY")
	if cfg.Locations, err = ParseLocations(getenv("AIRQUALITY_LOCATIONS")); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault(getenv, "PORT", "8080")
	cfg.LogLevel = getenvDefault(getenv, "LOG_LEVEL", "info")
	cfg.ClientLog = getenvDefault(getenv, "BREEZOMETER_LOG", "fiber")
	switch cfg.ClientLog {
	case "fiber", "std", "none":
	default:
		return nil, fmt.Errorf("invalid BREEZOMETER_LOG: %q (use fiber, std or none)", cfg.ClientLog)
	}

	return cfg, nil
}

// ParseLocations reads entries of the form
//
//	name=lat:lon;name=city,country
//
// Entries given by city and country are returned unresolved.
func ParseLocations(s string) ([]airquality.Location, error) {
	var locs []airquality.Location
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, value, ok := strings.Cut(entry, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid location %q: expected name=lat:lon or name=city,country", entry)
		}

		if latStr, lonStr, isCoord := strings.Cut(value, ":"); isCoord {
			lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid latitude for location %q: %w", name, err)
			}
			lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid longitude for location %q: %w", name, err)
			}
			locs = append(locs, airquality.Location{Name: name, Lat: lat, Lon: lon, Resolved: true})
			continue
		}

		city, country, ok := strings.Cut(value, ",")
		city, country = strings.TrimSpace(city), strings.TrimSpace(country)
		if !ok || city == "" || country == "" {
			return nil, fmt.Errorf("invalid location %q: expected name=lat:lon or name=city,country", entry)
		}
		locs = append(locs, airquality.Location{Name: name, City: city, Country: country})
	}
	return locs, nil
}

func getenvDefault(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(getenv func(string) string, key string, def int) int {
	if v := getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(getenv func(string) string, key string, def bool) bool {
	if v := getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(getenv func(string) string, key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(getenv, key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
