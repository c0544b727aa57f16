// Package main runs the notification feed watcher: it keeps a session's feed
// synchronized with the backend and exposes ops endpoints for it.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/careercoach/pulse/internal/feed/app/service"
	"github.com/careercoach/pulse/internal/feed/domain/model"
	"github.com/careercoach/pulse/internal/platform/config"
	"github.com/careercoach/pulse/internal/platform/health"
	"github.com/careercoach/pulse/internal/platform/logger"
	"github.com/careercoach/pulse/internal/platform/metrics"
	"github.com/careercoach/pulse/internal/session"
)

func main() {
	cfg, err := config.Load("feedwatch")
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg.Logger)
	log.Info("Starting Notification Feed Watcher", "version", cfg.Version)

	sessions := session.NewMemoryStore(sessionFromEnv())

	feed := service.NewFeedService(cfg, sessions, log, func(n model.Notification) {
		log.Info("notification received",
			"id", n.ID,
			"type", string(n.Type),
			"priority", string(n.Priority),
			"title", n.Title,
		)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := feed.Start(ctx); err != nil {
		log.Warn("feed started with errors", "error", err)
	}

	var opsServer *http.Server
	if cfg.Telemetry.MetricsEnabled {
		opsServer = startOpsServer(cfg, feed, log)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig)

	feed.Stop()

	if opsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("ops server shutdown error", "error", err)
		}
	}

	log.Info("Notification Feed Watcher stopped gracefully")
}

// sessionFromEnv builds the session from the environment; an empty token
// means logged out and every operation reports AuthRequired.
func sessionFromEnv() *session.Session {
	token := os.Getenv("FEED_TOKEN")
	if token == "" {
		return nil
	}
	return &session.Session{
		UserID: os.Getenv("FEED_USER_ID"),
		Email:  os.Getenv("FEED_USER_EMAIL"),
		Token:  token,
	}
}

func startOpsServer(cfg *config.Config, feed *service.FeedService, log logger.Logger) *http.Server {
	checks := health.NewHandler(cfg.Service.Name, cfg.Version)
	checks.AddCheck("push_channel", health.BoolChecker("push channel", func() bool {
		return feed.Snapshot().IsConnected
	}))
	checks.AddCheck("sync_api", health.HTTPChecker(cfg.API.BaseURL, 5*time.Second))

	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/healthz", checks.LivenessHandler()).Methods("GET")
	router.HandleFunc("/readyz", checks.ReadinessHandler()).Methods("GET")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("ops endpoints listening", "port", cfg.Telemetry.MetricsPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ops server error", "error", err)
		}
	}()
	return srv
}
