package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"beamcast/internal/core/domain"
	"beamcast/internal/core/services"
	httphandlers "beamcast/internal/handlers/http"
	"beamcast/internal/infrastructure/middleware"
	"beamcast/internal/infrastructure/monitoring"
	"beamcast/internal/infrastructure/repositories/memory"
	wsignal "beamcast/internal/infrastructure/signal"
	"beamcast/pkg/config"
	"beamcast/pkg/logger"
	"beamcast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	// Tracing (no-op unless enabled in config)
	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Monitoring
	collector := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)

	// Registry and transport hub
	registry := memory.NewChannelRegistry(cfg.Registry.MaxChannels, cfg.Registry.ChannelTTL)
	hub := wsignal.NewHub(cfg.Signal.WriteTimeout)

	// Core services
	membership := services.NewMembershipService(registry, hub, zapLogger)
	signaling := services.NewSignalingService(registry, hub, zapLogger)

	// TTL-evicted channels get the same viewer notification as an explicit stop.
	registry.SetEvictionHandler(func(ch *domain.Channel) {
		collector.IncChannelsExpired()
		log.Infow("channel expired", "channel_id", ch.ID, "viewer_count", len(ch.Viewers))
		for _, viewer := range ch.ViewerList() {
			if err := hub.Send(viewer, domain.EventBroadcasterStopped, domain.BroadcasterStoppedPayload{ChannelID: ch.ID}); err != nil {
				log.Debugw("failed to notify viewer of expired channel", "conn_id", viewer, "error", err)
			}
		}
	})

	wsServer := wsignal.NewWebSocketServer(hub, membership, signaling, registry, collector, cfg, zapLogger)

	// HTTP surface
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	channelHandler := httphandlers.NewChannelHandler(registry, hub)
	channelHandler.SetupRoutes(router, cfg.Monitoring.PrometheusEnabled)
	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting signaling relay", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Errorw("tracer shutdown failed", "error", err)
	}
}
