package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/agrimind/agri-advisor/internal/advisor"
	httpapi "github.com/agrimind/agri-advisor/internal/api/http"
	"github.com/agrimind/agri-advisor/internal/config"
	"github.com/agrimind/agri-advisor/internal/facts"
	"github.com/agrimind/agri-advisor/internal/facts/providers"
	"github.com/agrimind/agri-advisor/internal/geo"
	"github.com/agrimind/agri-advisor/internal/llm"
	"github.com/agrimind/agri-advisor/internal/scheduler"
	"github.com/agrimind/agri-advisor/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logger.WithField("service", "agri-advisor")

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Missing credential is a warning, not a startup failure: fact-bundle
	// usage stays functional without it.
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set; /api/chat will fail until it is configured")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Upstream data providers.
	weather := providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoBase)
	alerts := providers.NewSachetProvider(httpClient, cfg.SachetBase)
	soil := providers.NewSoilHealthProvider(httpClient, cfg.SoilHealthBase)
	mandi := providers.NewMandiProvider(httpClient, cfg.MandiBase, cfg.MandiAPIKey)

	var resolver facts.DistrictResolver
	if cfg.GeocoderAPIKey != "" {
		resolver = geo.NewResolver(cfg.GeocoderAPIKey, log.WithField("component", "geo"))
	}

	// Core services.
	factsSvc := facts.NewService(weather, alerts, soil, mandi, resolver, facts.ServiceConfig{
		ForecastDays:   cfg.ForecastDays,
		WeatherTimeout: cfg.WeatherTimeout,
		AuxTimeout:     cfg.AuxTimeout,
	}, log.WithField("component", "facts"))

	model := llm.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, nil)
	adv := advisor.NewService(factsSvc, model, log.WithField("component", "advisor"))

	// Snapshot history for tracked locations.
	snapshots := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	sched := scheduler.New(cfg.TrackLocations, cfg.PrewarmInterval, factsSvc, snapshots, log.WithField("component", "scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration. Write timeout must cover aggregation plus
	// the model call.
	app := fiber.New(fiber.Config{
		AppName:               "agri-advisor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Global middleware.
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Basic health endpoint.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "agri-advisor",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, adv, snapshots)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
}
