package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-sync/internal/api"
	"github.com/ignite/outreach-sync/internal/auth"
	"github.com/ignite/outreach-sync/internal/config"
	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/pkg/distlock"
	"github.com/ignite/outreach-sync/internal/providers"
	"github.com/ignite/outreach-sync/internal/providera"
	"github.com/ignite/outreach-sync/internal/providerb"
	"github.com/ignite/outreach-sync/internal/ratelimit"
	"github.com/ignite/outreach-sync/internal/repository/postgres"
	"github.com/ignite/outreach-sync/internal/sync"
	"github.com/ignite/outreach-sync/internal/webhook"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %w", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  outreach-sync ingestion backplane (cmd/server/main.go)      ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifeMins) * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to ping database: %v", err)
	}
	pingCancel()
	log.Println("Connected to Postgres")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to ping redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	store := postgres.New(db)
	limiter := ratelimit.New(redisClient)

	providerAClient := providers.New(&http.Client{Timeout: cfg.ProviderA.Timeout()}, limiter)
	providerBClient := providers.New(&http.Client{Timeout: cfg.ProviderB.Timeout()}, limiter)

	adapters := map[domain.Provider]providers.Adapter{
		domain.ProviderA: providera.New(cfg.ProviderA.BaseURL, providerAClient),
		domain.ProviderB: providerb.New(cfg.ProviderB.BaseURL, providerBClient),
	}

	budgets := map[domain.Provider]sync.Budget{
		domain.ProviderA: {
			Deadline:       time.Duration(cfg.Sync.ProviderABudgetSeconds) * time.Second,
			MaxBatches:     cfg.Sync.ProviderAMaxBatches,
			HeartbeatEvery: cfg.Sync.HeartbeatEvery,
		},
		domain.ProviderB: {
			Deadline:       time.Duration(cfg.Sync.ProviderBBudgetSeconds) * time.Second,
			MaxBatches:     cfg.Sync.ProviderBMaxBatches,
			HeartbeatEvery: cfg.Sync.HeartbeatEvery,
		},
	}

	scheduler := sync.NewHTTPScheduler(&http.Client{Timeout: 10 * time.Second}, cfg.Scheduler.SelfBaseURL, cfg.ServiceKey)

	newLock := func(key string) distlock.DistLock {
		return distlock.NewLock(redisClient, db, key, 2*time.Minute)
	}

	orchestrator := sync.New(store, adapters, budgets, scheduler, newLock)

	intake := &webhook.Intake{
		Campaigns: store.Campaigns,
		Contacts:  store.Contacts,
		Activity:  store.Activities,
		Events:    store.WebhookEvents,
		Counters:  store.RPC,
		Threads:   store.MessageThreads,
		Clicks:    store.LinkClicks,
	}

	authenticator := auth.New(cfg.ServiceKey)
	handlers := api.NewHandlers(authenticator, orchestrator, intake, store, cfg.Webhook.ProviderASecret, cfg.Webhook.ProviderBSecret)
	health := api.NewHealthChecker(db, redisClient)
	server := api.NewServer(cfg.Server, handlers, health)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
