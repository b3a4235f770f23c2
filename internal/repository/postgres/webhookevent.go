package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// WebhookEventRepo persists raw WebhookEvent rows, unique by (provider,
// event_id) — the idempotency key behind Testable Properties 4 and 5.
type WebhookEventRepo struct {
	db *sql.DB
}

// Insert records an inbound event. The returned bool is false when the
// (provider, event_id) pair already existed, meaning Intake must skip
// reprocessing it.
func (r *WebhookEventRepo) Insert(ctx context.Context, e *domain.WebhookEvent) (inserted bool, err error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_events (provider, event_id, event_type, payload, campaign_id, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, event_id) DO NOTHING`,
		e.Provider, e.EventID, e.EventType, e.Payload, nullableString(e.CampaignID), e.ReceivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: insert webhook event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: insert webhook event rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed flags an event as handled, after Intake applies its effects.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, provider domain.Provider, eventID, processedAt string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_events SET processed = true, processed_at = $3
		WHERE provider = $1 AND event_id = $2`,
		provider, eventID, processedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: mark webhook event processed: %w", err)
	}
	return nil
}
