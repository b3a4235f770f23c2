// Package aggregator rolls CampaignDailyMetric rows up into
// WorkspaceDailyMetric, the per-(workspace, provider, date) sums the
// orchestrator refreshes after every sync run.
package aggregator

import (
	"context"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// TrailingWindowDays bounds how far back the Aggregator sums.
const TrailingWindowDays = 90

// DailySummer is the subset of DailyMetricRepo the Aggregator needs.
type DailySummer interface {
	SumForWindow(ctx context.Context, workspaceID string, provider domain.Provider, windowDays int) ([]domain.WorkspaceDailyMetric, error)
}

// WorkspaceDailyWriter is the subset of WorkspaceDailyMetricRepo the
// Aggregator needs.
type WorkspaceDailyWriter interface {
	Upsert(ctx context.Context, m domain.WorkspaceDailyMetric) error
}

// Aggregator is a pure function of CampaignDailyMetric + Campaign.provider
// at the moment it runs: it never decrements and never touches cumulatives.
type Aggregator struct {
	daily      DailySummer
	workspaces WorkspaceDailyWriter
}

// New builds an Aggregator.
func New(daily DailySummer, workspaces WorkspaceDailyWriter) *Aggregator {
	return &Aggregator{daily: daily, workspaces: workspaces}
}

// Run recomputes and upserts WorkspaceDailyMetric for every date in the
// trailing 90-day window for (workspaceID, provider).
func (a *Aggregator) Run(ctx context.Context, workspaceID string, provider domain.Provider) error {
	sums, err := a.daily.SumForWindow(ctx, workspaceID, provider, TrailingWindowDays)
	if err != nil {
		return fmt.Errorf("aggregator: sum daily metrics: %w", err)
	}
	for _, m := range sums {
		if err := a.workspaces.Upsert(ctx, m); err != nil {
			return fmt.Errorf("aggregator: upsert workspace daily metric for %s: %w", m.MetricDate, err)
		}
	}
	return nil
}
