package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sgerhart/aegisrange/internal/api"
	"github.com/sgerhart/aegisrange/internal/bus"
	"github.com/sgerhart/aegisrange/internal/escalation"
	"github.com/sgerhart/aegisrange/internal/feed"
	"github.com/sgerhart/aegisrange/internal/game"
	"github.com/sgerhart/aegisrange/internal/generator"
	"github.com/sgerhart/aegisrange/internal/metrics"
	"github.com/sgerhart/aegisrange/internal/rules"
	"github.com/sgerhart/aegisrange/internal/sim"
	"github.com/sgerhart/aegisrange/internal/snapshot"
)

func main() {
	// Initialize logger
	logLevel := parseLogLevel(getEnv("RANGE_LOG_LEVEL", "info"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting AegisRange Training Simulation")

	// Load environment variables with defaults
	httpAddr := getEnv("RANGE_HTTP_ADDR", ":8090")
	natsURL := getEnv("RANGE_NATS_URL", "")
	baseTickMs := getEnvInt("RANGE_TICK_MS", 4000)
	sweepSec := getEnvInt("RANGE_SWEEP_SEC", 5)
	escalationSec := getEnvInt("RANGE_ESCALATION_TIMEOUT_SEC", 45)
	snapshotPath := getEnv("RANGE_SNAPSHOT_PATH", "")
	rulesDir := getEnv("RANGE_RULES_DIR", "rules.d")
	autoStart := strings.ToLower(getEnv("RANGE_AUTO_START", "false")) == "true"

	logger.Info("Configuration loaded",
		"http_addr", httpAddr,
		"nats_url", natsURL,
		"tick_ms", baseTickMs,
		"sweep_sec", sweepSec,
		"escalation_timeout_sec", escalationSec,
		"snapshot_path", snapshotPath,
		"rules_dir", rulesDir,
		"auto_start", autoStart)

	// Connect to NATS when a URL is configured; the feed is optional and the
	// simulation runs fully in-process without it.
	var nc *nats.Conn
	if natsURL != "" {
		conn, err := nats.Connect(natsURL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		nc = conn
		defer nc.Close()
		logger.Info("Connected to NATS", "url", natsURL)
	}

	// Build the session core
	sessionBus := bus.New(logger)
	prometheusMetrics := metrics.NewMetrics()
	snapshotStore := snapshot.NewStore(snapshotPath, logger)

	gameModel := game.NewModel(game.Config{
		Bus:               sessionBus,
		Logger:            logger,
		Metrics:           prometheusMetrics,
		Store:             snapshotStore,
		EscalationTimeout: time.Duration(escalationSec) * time.Second,
	})

	eventGenerator := generator.New(nil, nil, logger)
	ruleEngine := rules.NewEngine(gameModel, sessionBus, prometheusMetrics, logger)
	impactor := escalation.NewImpactor(gameModel, logger)

	var extras []sim.Attacher
	if nc != nil {
		extras = append(extras, feed.NewPublisher(nc, logger))
	}

	controller := sim.NewController(sim.Config{
		Bus:           sessionBus,
		Model:         gameModel,
		Gen:           eventGenerator,
		Engine:        ruleEngine,
		Impactor:      impactor,
		Extras:        extras,
		Logger:        logger,
		BaseInterval:  time.Duration(baseTickMs) * time.Millisecond,
		SweepInterval: time.Duration(sweepSec) * time.Second,
	})

	// Restore persisted session state, if any
	if snap, ok := snapshotStore.Load(); ok {
		controller.Restore(snap)
	}

	// Seed starter rule packs
	ruleLoader := rules.NewLoader(rulesDir, ruleEngine, logger)
	starters, err := ruleLoader.LoadPacks()
	if err != nil {
		logger.Error("Failed to load rule packs", "error", err)
		os.Exit(1)
	}
	controller.SeedRules(starters)

	if autoStart {
		controller.Start()
	}

	// Create HTTP API
	httpAPI := api.NewHTTPAPI(controller, logger)
	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: httpAPI.Router(),
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", "addr", httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("AegisRange started successfully")
	<-sigChan

	logger.Info("Shutting down AegisRange...")

	// Stop the timers before the final state save
	controller.Pause()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Flush the final session state now that the timers and API are stopped
	if err := snapshotStore.Save(gameModel.SnapshotState()); err != nil {
		logger.Error("Failed to save final snapshot", "error", err)
	}

	logger.Info("AegisRange stopped")
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an integer or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// parseLogLevel maps a level name to a slog.Level, defaulting to info.
func parseLogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
