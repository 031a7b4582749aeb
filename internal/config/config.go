package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Preference backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type AppConfig struct {
	Port string

	// WeatherProvider selects the upstream; empty means pick by available key.
	WeatherProvider   string
	WeatherAPIKey     string
	OpenWeatherAPIKey string

	// HTTPTimeout bounds every outbound weather request.
	HTTPTimeout time.Duration

	// Preference persistence.
	PrefsBackend   string
	PrefsDBPath    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// AutoRefreshInterval re-fetches the displayed city (0 = disabled).
	AutoRefreshInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.WeatherProvider = strings.ToLower(os.Getenv("WEATHER_PROVIDER"))
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive")
	}
	cfg.HTTPTimeout = timeout

	cfg.PrefsBackend = strings.ToLower(getenvDefault("PREFS_BACKEND", BackendSQLite))
	switch cfg.PrefsBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid PREFS_BACKEND %q: use sqlite, redis or memory", cfg.PrefsBackend)
	}
	cfg.PrefsDBPath = getenvDefault("PREFS_DB_PATH", "prefs.db")

	cfg.RedisAddr = getenvDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)
	cfg.RedisKeyPrefix = getenvDefault("REDIS_KEY_PREFIX", "weather-lookup:")

	refresh, err := time.ParseDuration(getenvDefault("AUTO_REFRESH_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_REFRESH_INTERVAL: %w", err)
	}
	cfg.AutoRefreshInterval = refresh

	return cfg, nil
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
