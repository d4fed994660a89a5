package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/agrimind/agri-advisor/internal/facts"
)

// AppConfig is the process-wide configuration, read once at startup and
// immutable afterwards. It is passed explicitly into constructors; nothing
// reads the environment after Load returns.
type AppConfig struct {
	// Gemini text-generation endpoint.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Upstream data providers. Empty soil/mandi bases disable those lookups.
	OpenMeteoBase  string
	SachetBase     string
	SoilHealthBase string
	MandiBase      string
	MandiAPIKey    string
	GeocoderAPIKey string

	// Aggregation tunables.
	ForecastDays   int
	WeatherTimeout time.Duration
	AuxTimeout     time.Duration

	// Shared outbound HTTP client timeout; must exceed the per-call budgets.
	HTTPTimeout time.Duration

	// Tracked locations prewarmed by the scheduler.
	TrackLocations  []facts.Coordinates
	PrewarmInterval time.Duration

	// Snapshot store retention.
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// .env is optional.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getenvDefault("GEMINI_MODEL", "gemini-1.5-mini")
	cfg.GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")

	cfg.OpenMeteoBase = os.Getenv("OPENMETEO_BASE")
	cfg.SachetBase = os.Getenv("SACHET_BASE")
	cfg.SoilHealthBase = os.Getenv("SOILHEALTH_BASE")
	cfg.MandiBase = os.Getenv("MANDI_BASE")
	cfg.MandiAPIKey = os.Getenv("MANDI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.ForecastDays = getenvInt("FORECAST_DAYS", facts.DefaultForecastDays)

	var err error
	if cfg.WeatherTimeout, err = getenvDuration("WEATHER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.AuxTimeout, err = getenvDuration("PROVIDER_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 12*time.Second); err != nil {
		return nil, err
	}
	if cfg.PrewarmInterval, err = getenvDuration("PREWARM_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 48)
	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := parseLocations(os.Getenv("TRACK_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.TrackLocations = locs

	return cfg, nil
}

// parseLocations parses "lat,lon;lat,lon" pairs.
func parseLocations(raw string) ([]facts.Coordinates, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var locs []facts.Coordinates
	for _, pair := range strings.Split(raw, ";") {
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid TRACK_LOCATIONS entry %q: want lat,lon", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in TRACK_LOCATIONS entry %q: %w", pair, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in TRACK_LOCATIONS entry %q: %w", pair, err)
		}
		locs = append(locs, facts.Coordinates{Lat: lat, Lon: lon})
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
