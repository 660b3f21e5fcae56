package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"bookingfeed/internal/config"
	"bookingfeed/internal/simulator"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before redis so we can instrument it).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := simulator.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	store := simulator.NewRedisStore(redisClient)
	hub := simulator.NewHub(store, log.Default())
	handler := simulator.NewBookingHandler(store, simulator.NewRedisLock(redisClient), hub)

	router := simulator.NewRouter(simulator.RouterDeps{
		Handler:     handler,
		Hub:         hub,
		JWTSecret:   cfg.Simulator.JWTSecret,
		Idempotency: simulator.NewRedisIdempotencyCache(redisClient),
		NewRelicApp: nrApp,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Simulator.Port,
		Handler:      router,
		ReadTimeout:  cfg.Simulator.ReadTimeout,
		WriteTimeout: cfg.Simulator.WriteTimeout,
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting simulator on port %s", cfg.Simulator.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down simulator...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Simulator exited")
}
