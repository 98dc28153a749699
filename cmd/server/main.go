package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"market-movers-api/internal/charts"
	"market-movers-api/internal/config"
	"market-movers-api/internal/exchange"
	"market-movers-api/internal/fetcher"
	"market-movers-api/internal/movers"
	"market-movers-api/internal/stream"
)

// Server holds all dependencies
type Server struct {
	router   *gin.Engine
	config   *config.Config
	service  *movers.Service
	charts   *charts.Service
	hub      *stream.Hub
	exchange *exchange.Client
	registry *prometheus.Registry
	log      *logrus.Logger
}

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if !cfg.IsProduction() {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Wire the pipeline: exchange client -> orchestrator -> service
	exchangeClient := exchange.NewClient(&exchange.Config{
		BaseURL:   cfg.Exchange.BaseURL,
		Timeout:   cfg.Exchange.Timeout,
		RateLimit: cfg.Exchange.RateLimit,
	}, log)

	orchestrator := fetcher.NewOrchestrator(exchangeClient, &fetcher.Config{
		TickerTimeout: cfg.Exchange.TickerTimeout,
		StatsTimeout:  cfg.Exchange.StatsTimeout,
	}, log)

	registry := prometheus.NewRegistry()
	metrics := movers.NewMetrics(registry)

	runtime := config.NewRuntime(cfg.Pipeline)
	service := movers.NewService(orchestrator, runtime, metrics, log)
	chartService := charts.NewService(exchangeClient, log)

	hub := stream.NewHub(stream.Config{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		WriteTimeout:    cfg.WebSocket.WriteTimeout,
	}, log)

	refresher := movers.NewRefresher(service, runtime, hub.Broadcast, log)
	refresher.Start()

	srv := &Server{
		router:   gin.New(),
		config:   cfg,
		service:  service,
		charts:   chartService,
		hub:      hub,
		exchange: exchangeClient,
		registry: registry,
		log:      log,
	}
	srv.setupRoutes()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	log.WithFields(logrus.Fields{
		"addr":        addr,
		"environment": cfg.Environment,
	}).Info("market movers API starting")

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	refresher.Stop()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server exited")
}
