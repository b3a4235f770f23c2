// Package sync implements the Sync Orchestrator: the resumable,
// time-budgeted batch loop that drives a complete refresh of a
// (workspace, provider) pair.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/outreach-sync/internal/aggregator"
	"github.com/ignite/outreach-sync/internal/deltaengine"
	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/pkg/distlock"
	"github.com/ignite/outreach-sync/internal/pkg/logger"
	"github.com/ignite/outreach-sync/internal/providers"
	"github.com/ignite/outreach-sync/internal/repository/postgres"
)

// Budget bundles the time budget, batch cap, and heartbeat interval that
// differ between Provider A and Provider B.
type Budget struct {
	Deadline      time.Duration
	MaxBatches    int
	HeartbeatEvery int
}

// Options mirrors run_sync's `{reset?, continue_at?, internal?}` input.
type Options struct {
	Reset       bool
	ContinueAt  *int
	Internal    bool
	BatchNumber int
}

// Result is what run_sync reports back to its HTTP handler.
type Result struct {
	Complete bool
	Progress domain.SyncProgress
	Status   domain.SyncStatus
}

// ContinuationScheduler enqueues the next batch when a run stops on its
// time budget.
type ContinuationScheduler interface {
	ScheduleContinuation(ctx context.Context, workspaceID string, provider domain.Provider, batchNumber int) error
}

// Orchestrator drives run_sync.
type Orchestrator struct {
	store     *postgres.Store
	adapters  map[domain.Provider]providers.Adapter
	budgets   map[domain.Provider]Budget
	scheduler ContinuationScheduler
	newLock   func(key string) distlock.DistLock
	nowFn     func() time.Time
}

// New builds an Orchestrator. newLock constructs a fresh distlock.DistLock
// for a given key (the caller typically closes over a shared Redis client
// or DB handle via distlock.NewLock).
func New(store *postgres.Store, adapters map[domain.Provider]providers.Adapter, budgets map[domain.Provider]Budget, scheduler ContinuationScheduler, newLock func(key string) distlock.DistLock) *Orchestrator {
	return &Orchestrator{
		store:     store,
		adapters:  adapters,
		budgets:   budgets,
		scheduler: scheduler,
		newLock:   newLock,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// RunSync executes one batch of the refresh for (workspaceID, provider).
// Authentication is the HTTP handler's responsibility; by the time RunSync
// is called the caller is already trusted.
func (o *Orchestrator) RunSync(ctx context.Context, workspaceID string, provider domain.Provider, opts Options) (*Result, error) {
	conn, err := o.store.Connections.Get(ctx, workspaceID, provider)
	if err != nil {
		return nil, fmt.Errorf("sync: load connection: %w", err)
	}

	if conn.SyncStatus == domain.SyncSyncing && !opts.Internal {
		return &Result{Complete: false, Progress: conn.SyncProgress, Status: conn.SyncStatus}, nil
	}
	if conn.SyncStatus == domain.SyncStopped && opts.Internal {
		return &Result{Complete: true, Progress: conn.SyncProgress, Status: conn.SyncStatus}, nil
	}

	lock := o.newLock(fmt.Sprintf("sync:%s:%s", workspaceID, provider))
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: acquire lock: %w", err)
	}
	if !acquired {
		return &Result{Complete: false, Progress: conn.SyncProgress, Status: conn.SyncStatus}, nil
	}
	defer lock.Release(ctx)

	if opts.Reset {
		if err := o.store.RPC.ResetWorkspaceProvider(ctx, workspaceID, provider); err != nil {
			return nil, fmt.Errorf("sync: reset workspace provider: %w", err)
		}
		if err := o.store.Connections.ClearSyncProgress(ctx, conn.ID); err != nil {
			return nil, fmt.Errorf("sync: clear sync progress: %w", err)
		}
		conn.SyncProgress = domain.SyncProgress{}
	}

	budget, ok := o.budgets[provider]
	if !ok {
		return nil, fmt.Errorf("sync: no budget configured for provider %s", provider)
	}
	if opts.BatchNumber > budget.MaxBatches {
		msg := fmt.Sprintf("sync: exceeded self-continuation cap of %d batches", budget.MaxBatches)
		_ = o.store.Connections.UpdateSyncState(ctx, conn.ID, domain.SyncError, conn.SyncProgress, nil, nil, msg)
		return nil, fmt.Errorf("%s", msg)
	}

	adapter, ok := o.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("sync: no adapter configured for provider %s", provider)
	}

	progress := conn.SyncProgress
	progress.Step = "starting"
	progress.BatchIndex = opts.BatchNumber
	if err := o.store.Connections.UpdateSyncState(ctx, conn.ID, domain.SyncSyncing, progress, nil, nil, ""); err != nil {
		return nil, fmt.Errorf("sync: mark syncing: %w", err)
	}

	if len(progress.CachedCampaignList) == 0 {
		summaries, err := adapter.ListCampaigns(ctx, conn)
		if err != nil {
			msg := fmt.Sprintf("sync: list campaigns: %v", err)
			_ = o.store.Connections.UpdateSyncState(ctx, conn.ID, domain.SyncError, progress, nil, nil, msg)
			return nil, fmt.Errorf("%s", msg)
		}
		refs := make([]domain.CampaignRef, 0, len(summaries))
		for _, s := range summaries {
			refs = append(refs, domain.CampaignRef{
				PlatformID: s.PlatformID,
				Name:       s.Name,
				Status:     s.Status,
				CreatedAt:  s.CreatedAt,
			})
		}
		progress.CachedCampaignList = refs
		progress.TotalCampaigns = len(refs)
		progress.CampaignIndex = 0
	}

	startIndex := progress.CampaignIndex
	if opts.ContinueAt != nil {
		startIndex = *opts.ContinueAt
	}

	deadline := o.nowFn().Add(budget.Deadline)
	engine := deltaengine.New(o.store.Cumulatives, o.store.DailyMetrics, func(err error) bool { return err == postgres.ErrNotFound })

	for i := startIndex; i < len(progress.CachedCampaignList); i++ {
		if o.nowFn().After(deadline) {
			progress.CampaignIndex = i
			progress.Step = "partial"
			if err := o.store.Connections.UpdateSyncState(ctx, conn.ID, domain.SyncPartial, progress, nil, nil, ""); err != nil {
				return nil, fmt.Errorf("sync: persist partial progress: %w", err)
			}
			if err := o.scheduler.ScheduleContinuation(ctx, workspaceID, provider, opts.BatchNumber+1); err != nil {
				logger.Warn("sync.schedule_continuation_failed", "workspace_id", workspaceID, "provider", string(provider), "error", err.Error())
			}
			return &Result{Complete: false, Progress: progress, Status: domain.SyncPartial}, nil
		}

		ref := progress.CachedCampaignList[i]
		if i > 0 && i%budget.HeartbeatEvery == 0 {
			progress.CurrentCampaignName = ref.Name
			progress.HeartbeatAt = o.nowFn().Format(time.RFC3339)
			if err := o.store.Connections.UpdateSyncState(ctx, conn.ID, domain.SyncSyncing, progress, nil, nil, ""); err != nil {
				logger.Warn("sync.heartbeat_failed", "error", err.Error())
			}
		}

		if err := o.syncOneCampaign(ctx, conn, provider, adapter, engine, ref, &progress); err != nil {
			progress.Errors = append(progress.Errors, fmt.Sprintf("%s: %v", ref.PlatformID, err))
			logger.Error("sync.campaign_failed", "platform_id", ref.PlatformID, "error", err.Error())
		}
	}

	agg := aggregator.New(o.store.DailyMetrics, o.store.WorkspaceDailyMetrics)
	if err := agg.Run(ctx, workspaceID, provider); err != nil {
		logger.Error("sync.aggregator_failed", "workspace_id", workspaceID, "provider", string(provider), "error", err.Error())
	}

	finalStatus := domain.SyncSuccess
	if len(progress.Errors) > 0 {
		finalStatus = domain.SyncCompletedWithError
	}
	progress.Step = "done"
	progress.CampaignIndex = len(progress.CachedCampaignList)

	nowStr := o.nowFn().Format(time.RFC3339)
	if err := o.store.Connections.UpdateSyncState(ctx, conn.ID, finalStatus, progress, &nowStr, &nowStr, ""); err != nil {
		return nil, fmt.Errorf("sync: mark final state: %w", err)
	}

	return &Result{Complete: true, Progress: progress, Status: finalStatus}, nil
}
