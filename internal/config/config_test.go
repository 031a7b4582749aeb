package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "WEATHER_PROVIDER", "HTTP_TIMEOUT", "PREFS_BACKEND", "PREFS_DB_PATH", "AUTO_REFRESH_INTERVAL", "REDIS_DB"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("expected 10s timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.PrefsBackend != BackendSQLite || cfg.PrefsDBPath != "prefs.db" {
		t.Fatalf("unexpected prefs defaults: %s %s", cfg.PrefsBackend, cfg.PrefsDBPath)
	}
	if cfg.AutoRefreshInterval != 0 {
		t.Fatalf("auto refresh should be off by default, got %s", cfg.AutoRefreshInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WEATHER_PROVIDER", "OpenMeteo")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("PREFS_BACKEND", "redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("AUTO_REFRESH_INTERVAL", "15m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WeatherProvider != "openmeteo" {
		t.Fatalf("expected lower-cased provider, got %s", cfg.WeatherProvider)
	}
	if cfg.HTTPTimeout != 3*time.Second || cfg.PrefsBackend != BackendRedis || cfg.RedisDB != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.AutoRefreshInterval != 15*time.Minute {
		t.Fatalf("expected 15m refresh, got %s", cfg.AutoRefreshInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"HTTP_TIMEOUT":          "soon",
		"PREFS_BACKEND":         "etcd",
		"AUTO_REFRESH_INTERVAL": "often",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}
