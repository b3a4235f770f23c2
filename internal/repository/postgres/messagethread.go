package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// MessageThreadRepo appends MessageThread rows — the raw reply body text,
// kept alongside EmailActivity's classified summary.
type MessageThreadRepo struct {
	db *sql.DB
}

// Insert appends a reply body for an activity. Not deduplicated: a contact
// can reply more than once to the same step.
func (r *MessageThreadRepo) Insert(ctx context.Context, t *domain.MessageThread) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_threads (activity_id, body, received_at) VALUES ($1, $2, $3)`,
		t.ActivityID, t.Body, t.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert message thread: %w", err)
	}
	return nil
}

// ListByActivity returns the reply bodies recorded for an activity, newest
// first, for contact-search's message-history snippets.
func (r *MessageThreadRepo) ListByActivity(ctx context.Context, activityID string, limit int) ([]domain.MessageThread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, activity_id, body, received_at FROM message_threads
		WHERE activity_id = $1 ORDER BY received_at DESC LIMIT $2`,
		activityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list message threads: %w", err)
	}
	defer rows.Close()

	var out []domain.MessageThread
	for rows.Next() {
		var t domain.MessageThread
		if err := rows.Scan(&t.ID, &t.ActivityID, &t.Body, &t.ReceivedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan message thread: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LinkClickRepo appends LinkClick rows — one per click event, even repeats
// of the same URL, so click_count on EmailActivity can be cross-checked.
type LinkClickRepo struct {
	db *sql.DB
}

// Insert appends a click record for an activity.
func (r *LinkClickRepo) Insert(ctx context.Context, c *domain.LinkClick) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO link_clicks (activity_id, url, clicked_at) VALUES ($1, $2, $3)`,
		c.ActivityID, c.URL, c.ClickedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert link click: %w", err)
	}
	return nil
}
