// Package main is the entry point for the Ringo bridge server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ringo-bridge/backend/internal/api"
	"github.com/ringo-bridge/backend/internal/bridge"
	"github.com/ringo-bridge/backend/internal/configflow"
	"github.com/ringo-bridge/backend/internal/i18n"
	"github.com/ringo-bridge/backend/internal/lock"
	"github.com/ringo-bridge/backend/internal/storage"
	"github.com/ringo-bridge/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

// Settings are the environment overrides, prefixed RINGO_.
type Settings struct {
	Addr         string `envconfig:"ADDR" default:":8099"`
	DataDir      string `envconfig:"DATA_DIR" default:"/data"`
	PollInterval int    `envconfig:"POLL_INTERVAL" default:"30"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	var settings Settings
	if err := envconfig.Process("ringo", &settings); err != nil {
		log.Fatal().Err(err).Msg("reading environment")
	}

	addr := flag.String("addr", settings.Addr, "HTTP server address")
	dataDir := flag.String("data", settings.DataDir, "Data directory for SQLite database")
	pollInterval := flag.Int("poll-interval", settings.PollInterval, "Lock state poll interval in seconds")
	logLevel := flag.String("log-level", settings.LogLevel, "Log level (trace, debug, info, warn, error)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			log.Fatal().Err(err).Msg("health check failed")
		}
		os.Exit(0)
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.With().Str("service", "ringo-bridge").Logger()

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}
	logger.Info().Str("version", version).Msg("starting ringo bridge")

	// Database
	db, err := storage.NewDB(*dataDir + "/ringo-bridge.db")
	if err != nil {
		logger.Fatal().Err(err).Msg("opening database")
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		logger.Fatal().Err(err).Msg("running migrations")
	}

	// WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	events := websocket.NewEventBroadcaster(hub)

	// Repositories
	entryRepo := storage.NewEntryRepository(db)
	lockEntityRepo := storage.NewLockEntityRepository(db)
	serviceLogRepo := storage.NewServiceLogRepository(db)

	// Translations
	catalog, err := i18n.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("loading translations")
	}

	// Poller and bridge
	poller := lock.NewPoller(*pollInterval, logger)
	br := bridge.New(entryRepo, lockEntityRepo, serviceLogRepo, events, poller, logger)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := br.LoadEntries(bootCtx); err != nil {
		logger.Fatal().Err(err).Msg("loading config entries")
	}
	bootCancel()

	if err := poller.Start(); err != nil {
		logger.Fatal().Err(err).Msg("starting poller")
	}

	// Config flow
	flow := configflow.NewFlow(entryRepo, configflow.DefaultProbe(logger), logger)

	// HTTP server
	router := api.NewRouter(db, hub, br, flow, catalog, lockEntityRepo, serviceLogRepo)
	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	poller.Stop()
	br.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown")
	}

	logger.Info().Msg("server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
