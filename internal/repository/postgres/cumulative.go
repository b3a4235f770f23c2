package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// CumulativeRepo persists CampaignCumulative, the Delta Engine's baseline.
// Only the Sync Orchestrator writes here — webhooks never touch it, per the
// single-writer-per-campaign invariant the Sync Orchestrator relies on.
type CumulativeRepo struct {
	db *sql.DB
}

// Get fetches the cumulative row for a campaign, or ErrNotFound on first sync.
func (r *CumulativeRepo) Get(ctx context.Context, campaignID string) (*domain.CampaignCumulative, error) {
	var c domain.CampaignCumulative
	err := r.db.QueryRowContext(ctx, `
		SELECT campaign_id, sent, opened, clicked, replied, bounced, positive_replies,
		       baseline_sent, first_synced_at, last_synced_at
		FROM campaign_cumulatives WHERE campaign_id = $1`, campaignID,
	).Scan(&c.CampaignID, &c.Sent, &c.Opened, &c.Clicked, &c.Replied, &c.Bounced,
		&c.PositiveReplies, &c.BaselineSent, &c.FirstSyncedAt, &c.LastSyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get cumulative: %w", err)
	}
	return &c, nil
}

// InsertBaseline creates the first cumulative row for a campaign. BaselineSent
// is recorded once here and never overwritten by Upsert.
func (r *CumulativeRepo) InsertBaseline(ctx context.Context, c *domain.CampaignCumulative) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_cumulatives
			(campaign_id, sent, opened, clicked, replied, bounced, positive_replies,
			 baseline_sent, first_synced_at, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		c.CampaignID, c.Sent, c.Opened, c.Clicked, c.Replied, c.Bounced, c.PositiveReplies,
		c.BaselineSent, c.FirstSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert cumulative baseline: %w", err)
	}
	return nil
}

// Update overwrites the observed totals and last_synced_at, leaving
// baseline_sent and first_synced_at untouched. This intentionally
// overwrites even a regressed counter rather than taking a max — see
// DESIGN.md's Open Question #2 decision.
func (r *CumulativeRepo) Update(ctx context.Context, campaignID string, lc domain.LifetimeCounters, syncedAt string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaign_cumulatives
		SET sent = $1, opened = $2, clicked = $3, replied = $4, bounced = $5,
		    positive_replies = $6, last_synced_at = $7
		WHERE campaign_id = $8`,
		lc.Sent, lc.Opened, lc.Clicked, lc.Replied, lc.Bounced, lc.PositiveReplies, syncedAt, campaignID,
	)
	if err != nil {
		return fmt.Errorf("postgres: update cumulative: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
