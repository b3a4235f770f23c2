package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// RPCRepo groups the atomic counter increments that webhook Intake uses in
// place of any read-modify-write. Every increment here is done inside one
// SQL statement (UPDATE ... SET x = x + $1, or INSERT ... ON CONFLICT DO
// UPDATE SET x = x + excluded.x), so concurrent webhook deliveries for the
// same key never race each other.
type RPCRepo struct {
	db *sql.DB
}

// IncrementCampaignMetric bumps exactly one named counter on a Campaign row
// by delta. field must be one of the campaign total_* columns.
func (r *RPCRepo) IncrementCampaignMetric(ctx context.Context, campaignID, field string, delta int64) error {
	col, ok := campaignMetricColumns[field]
	if !ok {
		return fmt.Errorf("postgres: unknown campaign metric field %q", field)
	}
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE campaigns SET %s = %s + $1 WHERE id = $2`, col, col),
		delta, campaignID,
	)
	if err != nil {
		return fmt.Errorf("postgres: increment campaign metric %s: %w", field, err)
	}
	return nil
}

var campaignMetricColumns = map[string]string{
	"sent":             "total_sent",
	"opened":           "total_opened",
	"clicked":          "total_clicked",
	"replied":          "total_replied",
	"bounced":          "total_bounced",
	"positive_replies": "positive_replies",
	"meetings":         "meetings",
}

// RecordDailyMetric increments a single named CampaignDailyMetric counter
// for (campaignID, metricDate) by delta, creating the row if absent.
func (r *RPCRepo) RecordDailyMetric(ctx context.Context, campaignID, metricDate, field string, delta int64) error {
	col, ok := dailyMetricColumns[field]
	if !ok {
		return fmt.Errorf("postgres: unknown daily metric field %q", field)
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO campaign_daily_metrics (campaign_id, metric_date, %s)
		VALUES ($1, $2, $3)
		ON CONFLICT (campaign_id, metric_date)
		DO UPDATE SET %s = campaign_daily_metrics.%s + excluded.%s`, col, col, col, col),
		campaignID, metricDate, delta,
	)
	if err != nil {
		return fmt.Errorf("postgres: record daily metric %s: %w", field, err)
	}
	return nil
}

var dailyMetricColumns = map[string]string{
	"sent":     "sent_count",
	"opened":   "opened_count",
	"clicked":  "clicked_count",
	"replied":  "replied_count",
	"positive": "positive_count",
	"bounced":  "bounced_count",
}

// RecordHourlyMetric increments a single named HourlyMetric counter for the
// (workspaceID, campaignID, metricDate, dayOfWeek, hourOfDay) bucket.
func (r *RPCRepo) RecordHourlyMetric(ctx context.Context, workspaceID, campaignID, metricDate string, dayOfWeek, hourOfDay int, field string, delta int64) error {
	col, ok := hourlyMetricColumns[field]
	if !ok {
		return fmt.Errorf("postgres: unknown hourly metric field %q", field)
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO hourly_metrics (workspace_id, campaign_id, metric_date, day_of_week, hour_of_day, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workspace_id, campaign_id, metric_date, day_of_week, hour_of_day)
		DO UPDATE SET %s = hourly_metrics.%s + excluded.%s`, col, col, col, col),
		workspaceID, campaignID, metricDate, dayOfWeek, hourOfDay, delta,
	)
	if err != nil {
		return fmt.Errorf("postgres: record hourly metric %s: %w", field, err)
	}
	return nil
}

var hourlyMetricColumns = map[string]string{
	"sent":    "emails_sent",
	"opened":  "emails_opened",
	"clicked": "emails_clicked",
	"replied": "emails_replied",
}

// UpdatePositiveReplyCounts bumps both the Campaign-level and the daily
// positive_replies/positive_count counters together, for a reply classified
// positive (or a category_changed event that newly becomes positive).
func (r *RPCRepo) UpdatePositiveReplyCounts(ctx context.Context, campaignID, metricDate string, delta int64) error {
	if err := r.IncrementCampaignMetric(ctx, campaignID, "positive_replies", delta); err != nil {
		return err
	}
	return r.RecordDailyMetric(ctx, campaignID, metricDate, "positive", delta)
}

// ResetWorkspaceProvider deletes every derived row scoped to
// (workspaceID, provider) ahead of a full resync (reset=true). Campaigns
// are deleted last since metrics, cumulatives, activities, and steps
// reference campaign_id.
func (r *RPCRepo) ResetWorkspaceProvider(ctx context.Context, workspaceID string, provider domain.Provider) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin reset tx: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM hourly_metrics WHERE workspace_id = $1 AND campaign_id IN
			(SELECT id FROM campaigns WHERE workspace_id = $1 AND provider = $2)`,
		`DELETE FROM campaign_daily_metrics WHERE campaign_id IN
			(SELECT id FROM campaigns WHERE workspace_id = $1 AND provider = $2)`,
		`DELETE FROM campaign_cumulatives WHERE campaign_id IN
			(SELECT id FROM campaigns WHERE workspace_id = $1 AND provider = $2)`,
		`DELETE FROM email_activities WHERE workspace_id = $1 AND campaign_id IN
			(SELECT id FROM campaigns WHERE workspace_id = $1 AND provider = $2)`,
		`DELETE FROM sequence_steps WHERE campaign_id IN
			(SELECT id FROM campaigns WHERE workspace_id = $1 AND provider = $2)`,
		`DELETE FROM workspace_daily_metrics WHERE workspace_id = $1 AND provider = $2`,
		`DELETE FROM campaigns WHERE workspace_id = $1 AND provider = $2`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, workspaceID, provider); err != nil {
			return fmt.Errorf("postgres: reset workspace provider: %w", err)
		}
	}
	return tx.Commit()
}
