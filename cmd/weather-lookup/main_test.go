package main

import (
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/store"
)

// trackingKV records whether the server released its preference store.
type trackingKV struct {
	*store.MemoryStore

	mu     sync.Mutex
	closed int
}

func (k *trackingKV) Close() error {
	k.mu.Lock()
	k.closed++
	k.mu.Unlock()
	return k.MemoryStore.Close()
}

func (k *trackingKV) closeCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}

func useTrackingKV(t *testing.T) *trackingKV {
	t.Helper()
	kv := &trackingKV{MemoryStore: store.NewMemoryStore()}
	prevOpen, prevStart := openPreferences, startScheduler
	openPreferences = func(*config.AppConfig) (kvStore, error) { return kv, nil }
	t.Cleanup(func() {
		openPreferences, startScheduler = prevOpen, prevStart
	})
	return kv
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Port:            "0",
		WeatherProvider: "openmeteo",
		HTTPTimeout:     time.Second,
		PrefsBackend:    config.BackendMemory,
	}
}

func TestNewServerClosesPreferencesWhenSchedulerFails(t *testing.T) {
	kv := useTrackingKV(t)
	startScheduler = func(*scheduler.Scheduler) error { return errors.New("scheduler broken") }

	srv, err := newServer(testConfig())
	if err == nil {
		t.Fatalf("expected error, got server %v", srv)
	}
	if n := kv.closeCount(); n != 1 {
		t.Fatalf("expected preference store closed once, got %d", n)
	}
}

func TestNewServerUnknownProvider(t *testing.T) {
	kv := useTrackingKV(t)
	cfg := testConfig()
	cfg.WeatherProvider = "nowhere"

	if _, err := newServer(cfg); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if n := kv.closeCount(); n != 0 {
		t.Fatalf("store must not be opened before the provider is valid, closed %d times", n)
	}
}

func TestServerServesAndCloses(t *testing.T) {
	kv := useTrackingKV(t)

	srv, err := newServer(testConfig())
	if err != nil {
		t.Fatalf("newServer failed: %v", err)
	}

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if n := kv.closeCount(); n != 1 {
		t.Fatalf("expected preference store closed once, got %d", n)
	}
}
