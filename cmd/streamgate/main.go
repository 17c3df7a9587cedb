package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamgate/internal/core/services"
	httphandlers "streamgate/internal/handlers/http"
	"streamgate/internal/infrastructure/middleware"
	"streamgate/internal/infrastructure/monitoring"
	"streamgate/internal/infrastructure/relay"
	"streamgate/internal/infrastructure/upstream"
	"streamgate/pkg/config"
	"streamgate/pkg/logger"
	"streamgate/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/streamgate/config.yaml",
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
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "streamgate",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	collector := monitoring.NewPrometheusCollector()

	// Upstream clients
	fetcher := upstream.NewClient(cfg.Upstream.Timeout, cfg.Upstream.MaxRedirects, cfg.Upstream.UserAgent, collector, log)
	gql := upstream.NewGraphQL(fetcher, cfg.Upstream.GraphQLURL, cfg.Upstream.ClientID)

	// Core services
	tokenService := services.NewTokenService(gql, collector, log)
	playlistService := services.NewPlaylistService(fetcher, cfg.Upstream.UsherURL, log)
	metadataService := services.NewMetadataService(gql, log)
	allowList := services.NewAllowListService(cfg.Proxy.AllowedHosts)
	channelService := services.NewChannelService(tokenService, playlistService, metadataService, cfg.Proxy.PublicPath, log)

	// Transcription relay
	transcribeRelay := relay.NewRelay(cfg.Relay.UpstreamURL, cfg.Relay.HandshakeTimeout, cfg.Relay.WriteTimeout, collector, log)

	// HTTP handlers
	streamHandler := httphandlers.NewStreamHandler(channelService, collector, log)
	proxyHandler := httphandlers.NewProxyHandler(fetcher, allowList, cfg.Proxy.PublicPath, collector, log)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestLoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.ErrorHandlerMiddleware(log))

	streamHandler.SetupRoutes(router)
	proxyHandler.SetupRoutes(router)

	router.GET("/ws/transcribe", gin.WrapF(transcribeRelay.HandleTranscribe))

	// Readiness covers the one hard dependency: the GraphQL gateway.
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("graphql", func(ctx context.Context) error {
		_, err := fetcher.Fetch(ctx, http.MethodOptions, cfg.Upstream.GraphQLURL, nil, nil)
		return err
	}, 5*time.Second)

	healthHandler := httphandlers.NewHealthHandler(healthChecker, time.Now())
	healthHandler.SetupRoutes(router)

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting StreamGate server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down StreamGate server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("StreamGate server stopped")
}
