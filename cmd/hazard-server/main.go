package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safeahead/hazard-alerts/internal/api"
	"github.com/safeahead/hazard-alerts/internal/cache"
	"github.com/safeahead/hazard-alerts/internal/config"
	"github.com/safeahead/hazard-alerts/internal/feeds"
	"github.com/safeahead/hazard-alerts/internal/generator"
	"github.com/safeahead/hazard-alerts/internal/logging"
	"github.com/safeahead/hazard-alerts/internal/observability"
	"github.com/safeahead/hazard-alerts/internal/poller"
	"github.com/safeahead/hazard-alerts/internal/query"
	"github.com/safeahead/hazard-alerts/internal/stream"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"monitor_center", fmt.Sprintf("%.4f,%.4f", cfg.Region.CenterLat, cfg.Region.CenterLon),
		"monitor_radius_km", cfg.Region.RadiusKm,
	)

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	alertCache := cache.New(clock)
	gen := generator.New(cfg.Region, cfg.Alerts, clock)
	broadcaster := stream.NewBroadcaster()

	var sources []feeds.Source
	if cfg.Sources.USGSEnabled {
		sources = append(sources, feeds.NewUSGSSource(cfg.Sources.USGSURL, cfg.Poller.FetchTimeout))
	}
	if cfg.Sources.OpenMeteoEnabled {
		sources = append(sources, feeds.NewOpenMeteoSource(
			cfg.Sources.OpenMeteoURL, cfg.Region.CenterLat, cfg.Region.CenterLon, cfg.Poller.FetchTimeout))
	}
	if len(sources) == 0 {
		logging.Fatalf("No feed sources enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := poller.New(sources, gen, alertCache, broadcaster, metrics, cfg.Poller.Interval, cfg.Poller.FetchTimeout)
	p.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := api.NewHandler(query.NewService(alertCache), broadcaster, p.LastCycle)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	p.Stop()
	broadcaster.Close() // Close all streams gracefully

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
