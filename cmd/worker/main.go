package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-sync/internal/config"
	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/pkg/distlock"
	"github.com/ignite/outreach-sync/internal/pkg/logger"
	"github.com/ignite/outreach-sync/internal/providers"
	"github.com/ignite/outreach-sync/internal/providera"
	"github.com/ignite/outreach-sync/internal/providerb"
	"github.com/ignite/outreach-sync/internal/ratelimit"
	"github.com/ignite/outreach-sync/internal/repository/postgres"
	"github.com/ignite/outreach-sync/internal/sync"
)

func main() {
	log.Println("Starting outreach-sync periodic trigger worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
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
	log.Println("Connected to database")

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := time.Duration(cfg.Scheduler.PollIntervalSeconds) * time.Second
	go runPollLoop(ctx, store, orchestrator, interval)
	log.Printf("Poll loop started (every %s)", interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	log.Println("Worker stopped")
}

// runPollLoop is the periodic-trigger path of the scheduling model:
// on each tick it finds every active, non-syncing connection and kicks off
// a batch run. A connection already mid-sync (SyncSyncing) is left alone —
// its own continuation (sync.HTTPScheduler) drives it to completion without
// the poll loop racing it.
func runPollLoop(ctx context.Context, store *postgres.Store, orchestrator *sync.Orchestrator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pollOnce(ctx, store, orchestrator)
		}
	}
}

func pollOnce(ctx context.Context, store *postgres.Store, orchestrator *sync.Orchestrator) {
	conns, err := store.Connections.ListActive(ctx)
	if err != nil {
		logger.Error("worker.list_active_failed", "error", err.Error())
		return
	}

	for _, conn := range conns {
		if conn.SyncStatus == domain.SyncSyncing {
			continue
		}
		res, err := orchestrator.RunSync(ctx, conn.WorkspaceID, conn.Provider, sync.Options{})
		if err != nil {
			logger.Error("worker.run_sync_failed", "workspace_id", conn.WorkspaceID, "provider", string(conn.Provider), "error", err.Error())
			continue
		}
		logger.Info("worker.run_sync_complete", "workspace_id", conn.WorkspaceID, "provider", string(conn.Provider), "complete", res.Complete)
	}
}
