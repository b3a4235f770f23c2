package providers

import (
	"context"

	"github.com/ignite/outreach-sync/internal/domain"
)

// Adapter is the uniform interface both provider adapters implement so the
// Sync Orchestrator can drive either platform identically.
type Adapter interface {
	// ListCampaigns streams every campaign summary for the connection,
	// handling provider-side pagination internally.
	ListCampaigns(ctx context.Context, conn *domain.ApiConnection) ([]domain.CampaignSummary, error)
	// FetchCampaignStats fetches and normalizes one campaign's lifetime
	// counters.
	FetchCampaignStats(ctx context.Context, conn *domain.ApiConnection, platformID string) (domain.LifetimeCounters, error)
	// FetchSteps fetches and normalizes one campaign's sequence steps.
	FetchSteps(ctx context.Context, conn *domain.ApiConnection, platformID string) ([]domain.SequenceStep, error)
}

// FirstNonNilNumber returns the first value in order that is present (the
// key exists and is a JSON number) across a provider's field-name synonyms
// for the same metric. Absent keys and non-numeric values are skipped
// silently.
func FirstNonNilNumber(obj map[string]interface{}, keys ...string) (int64, bool) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case int:
			return int64(n), true
		}
	}
	return 0, false
}
