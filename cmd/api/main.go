package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/astrozaddy/astrochart/internal/adapters/http"
	"github.com/astrozaddy/astrochart/internal/adapters/swisseph"
	"github.com/astrozaddy/astrochart/internal/adapters/valkey"
	"github.com/astrozaddy/astrochart/internal/core/ports"
	"github.com/astrozaddy/astrochart/internal/core/usecases"
	"github.com/astrozaddy/astrochart/internal/pkg/config"
	"github.com/astrozaddy/astrochart/internal/pkg/logging"
	"github.com/astrozaddy/astrochart/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("astrochart-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Swiss Ephemeris data files
	swisseph.Init(cfg.Ephemeris.DataPath)
	defer swisseph.Close()
	eph := swisseph.New()

	// Cache (optional; only lunar-phase lookups use it)
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// Use cases. The nil-pointer dance keeps a typed nil out of the
	// CacheService interface when valkey is down.
	chartSvc := usecases.NewChartService(eph)
	var phaseCache ports.CacheService
	if cache != nil {
		phaseCache = cache
	}
	phaseSvc := usecases.NewPhaseService(eph, phaseCache)

	deps := &http.Dependencies{
		Charts:    chartSvc,
		Phases:    phaseSvc,
		Ephemeris: eph,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "AstroChart Engine API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Static demo page
	app.Static("/demo", cfg.Server.DemoDir)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
