package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/i474232898/weather-lookup/internal/api/http"
	"github.com/i474232898/weather-lookup/internal/config"
	"github.com/i474232898/weather-lookup/internal/observability"
	"github.com/i474232898/weather-lookup/internal/prefs"
	"github.com/i474232898/weather-lookup/internal/scheduler"
	"github.com/i474232898/weather-lookup/internal/store"
	"github.com/i474232898/weather-lookup/internal/weather/providers"
	"github.com/i474232898/weather-lookup/internal/widget"
)

const serviceName = "weather-lookup"

// kvStore is a preference backend that owns a connection.
type kvStore interface {
	prefs.KV
	Close() error
}

// Replaced in tests.
var (
	openPreferences = openPreferenceBackend
	startScheduler  = (*scheduler.Scheduler).Start
)

// server is the assembled process: the HTTP app and the resources it owns.
type server struct {
	app   *fiber.App
	sched *scheduler.Scheduler
	kv    kvStore
}

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	srv, err := newServer(cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	go func() {
		if err := srv.app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	if err := srv.Close(); err != nil {
		log.Printf("error closing preference store: %v", err)
	}
}

// newServer wires the widget behind a Fiber app. On error every resource
// opened so far is released.
func newServer(cfg *config.AppConfig) (*server, error) {
	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher, err := providers.New(cfg.WeatherProvider, httpClient, providers.Keys{
		WeatherAPI:  cfg.WeatherAPIKey,
		OpenWeather: cfg.OpenWeatherAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("configure weather provider: %w", err)
	}
	log.Printf("INFO: using weather provider %s", fetcher.Name())

	kv, err := openPreferences(cfg)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}

	metrics := observability.NewMetrics(serviceName)

	// One widget session for the lifetime of the process.
	ctrl := widget.New(context.Background(), fetcher, prefs.New(kv), metrics)

	sched := scheduler.New(ctrl, cfg.AutoRefreshInterval, cfg.HTTPTimeout)
	if err := startScheduler(sched); err != nil {
		if cerr := kv.Close(); cerr != nil {
			log.Printf("error closing preference store: %v", cerr)
		}
		return nil, fmt.Errorf("start scheduler: %w", err)
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// A lookup may take the whole outbound timeout.
		WriteTimeout: cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(metrics.Middleware())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  serviceName,
			"provider": fetcher.Name(),
		})
	})
	app.Get("/metrics", metrics.Handler())

	// Widget page and API routes.
	httpapi.RegisterRoutes(app, ctrl)

	return &server{app: app, sched: sched, kv: kv}, nil
}

// Close stops the scheduler and releases the preference store.
func (s *server) Close() error {
	s.sched.Stop()
	return s.kv.Close()
}

func openPreferenceBackend(cfg *config.AppConfig) (kvStore, error) {
	switch cfg.PrefsBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Preferences are best effort; keep going and let writes fail quietly.
			log.Printf("WARN: redis %s not reachable: %v", cfg.RedisAddr, err)
		}
		log.Printf("INFO: preferences stored in redis %s", cfg.RedisAddr)
		return store.NewRedisStore(rdb, cfg.RedisKeyPrefix), nil
	case config.BackendMemory:
		log.Printf("INFO: preferences kept in memory only")
		return store.NewMemoryStore(), nil
	default:
		log.Printf("INFO: preferences stored in %s", cfg.PrefsDBPath)
		return store.NewSQLite(cfg.PrefsDBPath)
	}
}
