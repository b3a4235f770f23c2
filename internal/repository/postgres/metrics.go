package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// DailyMetricRepo persists CampaignDailyMetric, unique by (campaign_id,
// metric_date). Written by the Delta Engine (deltas or the first-sync
// baseline row) and by webhook RPCs (per-event increments).
type DailyMetricRepo struct {
	db *sql.DB
}

// UpsertDelta adds the given deltas onto any existing row for the date,
// creating one if absent. The Delta Engine uses this both for the baseline
// row (full lifetime totals as the "delta") and for incremental rows.
func (r *DailyMetricRepo) UpsertDelta(ctx context.Context, campaignID, metricDate string, m domain.CampaignDailyMetric) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_daily_metrics (campaign_id, metric_date, sent_count, opened_count, clicked_count, replied_count, positive_count, bounced_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (campaign_id, metric_date)
		DO UPDATE SET
			sent_count = campaign_daily_metrics.sent_count + excluded.sent_count,
			opened_count = campaign_daily_metrics.opened_count + excluded.opened_count,
			clicked_count = campaign_daily_metrics.clicked_count + excluded.clicked_count,
			replied_count = campaign_daily_metrics.replied_count + excluded.replied_count,
			positive_count = campaign_daily_metrics.positive_count + excluded.positive_count,
			bounced_count = campaign_daily_metrics.bounced_count + excluded.bounced_count`,
		campaignID, metricDate, m.SentCount, m.OpenedCount, m.ClickedCount, m.RepliedCount, m.PositiveCount, m.BouncedCount,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert daily metric: %w", err)
	}
	return nil
}

// SumForWindow aggregates CampaignDailyMetric rows for every campaign under
// (workspaceID, provider) within a trailing window of days ending today.
// Used by the Aggregator; it never reads or writes Cumulative.
func (r *DailyMetricRepo) SumForWindow(ctx context.Context, workspaceID string, provider domain.Provider, windowDays int) ([]domain.WorkspaceDailyMetric, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cdm.metric_date,
		       SUM(cdm.sent_count), SUM(cdm.opened_count), SUM(cdm.clicked_count),
		       SUM(cdm.replied_count), SUM(cdm.positive_count), SUM(cdm.bounced_count),
		       COUNT(DISTINCT c.id)
		FROM campaign_daily_metrics cdm
		JOIN campaigns c ON c.id = cdm.campaign_id
		WHERE c.workspace_id = $1 AND c.provider = $2
		  AND cdm.metric_date >= (CURRENT_DATE - ($3 || ' days')::interval)
		GROUP BY cdm.metric_date`,
		workspaceID, provider, windowDays,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: sum daily metrics for window: %w", err)
	}
	defer rows.Close()

	var out []domain.WorkspaceDailyMetric
	for rows.Next() {
		m := domain.WorkspaceDailyMetric{WorkspaceID: workspaceID, Provider: provider}
		if err := rows.Scan(&m.MetricDate, &m.SentCount, &m.OpenedCount, &m.ClickedCount,
			&m.RepliedCount, &m.PositiveCount, &m.BouncedCount, &m.ActiveCampaigns); err != nil {
			return nil, fmt.Errorf("postgres: scan workspace daily metric: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// WorkspaceDailyMetricRepo persists the rolled-up per-workspace aggregate.
type WorkspaceDailyMetricRepo struct {
	db *sql.DB
}

// Upsert replaces the row for (workspace_id, provider, metric_date). The
// Aggregator recomputes the sum each run, so this is a plain overwrite, not
// an increment — unlike the counter RPCs that webhooks use.
func (r *WorkspaceDailyMetricRepo) Upsert(ctx context.Context, m domain.WorkspaceDailyMetric) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workspace_daily_metrics
			(workspace_id, provider, metric_date, sent_count, opened_count, clicked_count, replied_count, positive_count, bounced_count, active_campaigns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (workspace_id, provider, metric_date)
		DO UPDATE SET sent_count = excluded.sent_count, opened_count = excluded.opened_count,
		              clicked_count = excluded.clicked_count, replied_count = excluded.replied_count,
		              positive_count = excluded.positive_count, bounced_count = excluded.bounced_count,
		              active_campaigns = excluded.active_campaigns`,
		m.WorkspaceID, m.Provider, m.MetricDate, m.SentCount, m.OpenedCount, m.ClickedCount,
		m.RepliedCount, m.PositiveCount, m.BouncedCount, m.ActiveCampaigns,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert workspace daily metric: %w", err)
	}
	return nil
}

// HourlyMetricRepo persists HourlyMetric, unique by (workspace_id,
// campaign_id, metric_date, day_of_week, hour_of_day). Only ever
// incremented through RPCRepo's atomic upserts.
type HourlyMetricRepo struct {
	db *sql.DB
}
