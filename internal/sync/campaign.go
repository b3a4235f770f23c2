package sync

import (
	"context"
	"fmt"

	"github.com/ignite/outreach-sync/internal/deltaengine"
	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/providers"
)

// syncOneCampaign performs the fetch-stats/fetch-steps/delta/persist substeps for one cached
// campaign reference: upsert, stats + delta, steps, accumulating per-step
// errors into progress.Errors without aborting the caller's loop.
func (o *Orchestrator) syncOneCampaign(ctx context.Context, conn *domain.ApiConnection, provider domain.Provider, adapter providers.Adapter, engine *deltaengine.Engine, ref domain.CampaignRef, progress *domain.SyncProgress) error {
	workspaceID := conn.WorkspaceID
	campaign := &domain.Campaign{
		WorkspaceID: workspaceID,
		Provider:    provider,
		PlatformID:  ref.PlatformID,
		Name:        ref.Name,
		Status:      ref.Status,
	}
	if ref.CreatedAt != "" {
		createdAt := ref.CreatedAt
		campaign.CreatedAt = &createdAt
	}

	campaignID, err := o.store.Campaigns.Upsert(ctx, campaign)
	if err != nil {
		return fmt.Errorf("upsert campaign: %w", err)
	}

	counters, err := adapter.FetchCampaignStats(ctx, conn, ref.PlatformID)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}

	today := o.nowFn().Format("2006-01-02")
	createdAtDate := ""
	if ref.CreatedAt != "" {
		createdAtDate = ref.CreatedAt
		if len(createdAtDate) > 10 {
			createdAtDate = createdAtDate[:10]
		}
	}
	if err := engine.Apply(ctx, campaignID, counters, createdAtDate, today); err != nil {
		return fmt.Errorf("delta engine: %w", err)
	}

	steps, err := adapter.FetchSteps(ctx, conn, ref.PlatformID)
	if err != nil {
		progress.Errors = append(progress.Errors, fmt.Sprintf("%s: fetch steps: %v", ref.PlatformID, err))
		return nil
	}
	for _, s := range steps {
		s.CampaignID = campaignID
		if err := o.store.Steps.Upsert(ctx, &s); err != nil {
			progress.Errors = append(progress.Errors, fmt.Sprintf("%s: upsert step %d: %v", ref.PlatformID, s.StepNumber, err))
		}
	}

	return nil
}
