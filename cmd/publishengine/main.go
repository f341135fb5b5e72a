// Package main is the entry point for the Subscription Publish Engine.
// It wires the core state machine to its ambient stack and manages the
// process lifecycle.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nexus-edge/publish-engine/internal/adapter/config"
	"github.com/nexus-edge/publish-engine/internal/diagnostics"
	"github.com/nexus-edge/publish-engine/internal/health"
	"github.com/nexus-edge/publish-engine/internal/metrics"
	"github.com/nexus-edge/publish-engine/internal/notification"
	"github.com/nexus-edge/publish-engine/internal/publish"
	"github.com/nexus-edge/publish-engine/internal/registry"
	"github.com/nexus-edge/publish-engine/internal/scheduler"
	"github.com/nexus-edge/publish-engine/pkg/logging"
)

const (
	serviceName    = "publish-engine"
	serviceVersion = "1.0.0"
)

func main() {
	logger := logging.New(serviceName, serviceVersion)
	logger.Info().Msg("Starting Subscription Publish Engine")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger = logging.Configure(logger, cfg.Logging.Level, cfg.Logging.Format)
	logger.Info().Str("env", cfg.Service.Environment).Msg("Configuration loaded")

	metricsRegistry := metrics.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := registry.New()
	tickerScheduler := scheduler.NewTickerScheduler()
	registrar := scheduler.NewRegistrar(tickerScheduler, logger)
	assembler := notification.NewAssembler()

	stateMachine := publish.New(assembler, reg, registrar, nil, metricsRegistry, logger)

	var bridge *diagnostics.Bridge
	if cfg.Diagnostics.Enabled {
		bridge = newDiagnosticsBridge(ctx, cfg, logger)
		stateMachine.SetNotifier(bridge)
	}

	healthChecker := health.NewChecker(serviceName, serviceVersion, reg, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthChecker.HealthHandler)
	mux.HandleFunc("/health/live", healthChecker.LivenessHandler)
	mux.HandleFunc("/health/ready", healthChecker.ReadinessHandler)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info().Int("port", cfg.HTTP.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	logger.Info().Msg("Subscription Publish Engine started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error shutting down HTTP server")
	}

	cancel()
	logger.Info().Msg("Subscription Publish Engine shutdown complete")
}

// newDiagnosticsBridge constructs and connects the optional MQTT lifecycle
// bridge. Connection failures are logged, not fatal: the publish engine's
// core never depends on diagnostics to function (SPEC_FULL.md §4.8).
func newDiagnosticsBridge(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *diagnostics.Bridge {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Diagnostics.BrokerURL).
		SetClientID(cfg.Diagnostics.ClientID).
		SetUsername(cfg.Diagnostics.Username).
		SetPassword(cfg.Diagnostics.Password).
		SetConnectTimeout(cfg.Diagnostics.ConnectDelay).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)

	bridgeConfig := diagnostics.Config{
		TopicPrefix: cfg.Diagnostics.TopicPrefix,
		QoS:         cfg.Diagnostics.QoS,
	}
	bridge := diagnostics.NewBridge(client, bridgeConfig, logger)

	go func() {
		if token := client.Connect(); token.WaitTimeout(cfg.Diagnostics.ConnectDelay) && token.Error() != nil {
			logger.Warn().Err(token.Error()).Msg("Diagnostics bridge failed to connect; continuing without it")
		}
	}()

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
	}()

	return bridge
}
