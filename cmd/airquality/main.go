package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	flog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sony/gobreaker"

	httpapi "github.com/i474232898/air-quality-client/internal/api/http"
	"github.com/i474232898/air-quality-client/internal/airquality"
	"github.com/i474232898/air-quality-client/internal/config"
	"github.com/i474232898/air-quality-client/internal/geocode"
	"github.com/i474232898/air-quality-client/internal/scheduler"
	"github.com/i474232898/air-quality-client/internal/store"
	"github.com/i474232898/air-quality-client/pkg/breezometer"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flog.SetLevel(parseLevel(cfg.LogLevel))

	if cfg.APIKey == "" {
		log.Printf("WARN: BREEZOMETER_API_KEY is not set; provider calls will be rejected")
	}

	// Resolve city,country locations to coordinates.
	var resolver geocode.Resolver
	if cfg.GeocoderAPIKey != "" {
		resolver = geocode.NewGoogleResolver(cfg.GeocoderAPIKey)
	}
	geoCtx, cancelGeo := context.WithTimeout(context.Background(), 30*time.Second)
	locations, err := geocode.ResolveLocations(geoCtx, resolver, cfg.Locations)
	cancelGeo()
	if err != nil {
		log.Fatalf("failed to resolve locations: %v", err)
	}

	// Provider client with retry/backoff and an optional circuit breaker.
	headers := http.Header{}
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}
	var opts []breezometer.Option
	if cfg.BreakerEnabled {
		opts = append(opts, breezometer.WithCircuitBreaker(gobreaker.Settings{
			Name:        "breezometer",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}))
	}
	client, err := breezometer.New(breezometer.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Headers:    headers,
		Logger:     clientLogger(cfg.ClientLog, cfg.LogLevel),
	}, opts...)
	if err != nil {
		log.Fatalf("failed to create breezometer client: %v", err)
	}

	// In-memory reading history with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	service := airquality.NewService(memStore, client, locations, breezometer.Lang(cfg.Lang))

	// Scheduler that periodically polls tracked locations.
	if len(locations) == 0 {
		log.Println("INFO: no locations configured; polling disabled")
	} else {
		sched := scheduler.New(cfg.PollInterval, cfg.PollTimeout, service)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "air-quality-client",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Provider calls may retry for several minutes.
		WriteTimeout: 0,
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
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "air-quality-client",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// clientLogger picks the sink for the client's own call logs.
func clientLogger(sink, level string) breezometer.Logger {
	switch sink {
	case "std":
		lvl := parseLevel(level)
		return breezometer.StdLogger{
			L:       log.New(os.Stderr, "breezometer ", log.LstdFlags),
			Verbose: lvl == flog.LevelDebug || lvl == flog.LevelTrace,
		}
	case "none":
		return breezometer.NopLogger{}
	default:
		return breezometer.FiberLogger{}
	}
}

func parseLevel(s string) flog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return flog.LevelTrace
	case "debug":
		return flog.LevelDebug
	case "warn":
		return flog.LevelWarn
	case "error":
		return flog.LevelError
	default:
		return flog.LevelInfo
	}
}
