package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// ActivityRepo persists EmailActivity, the unified per-contact per-step
// record that Webhook Intake dedupes events onto, keyed by (workspace_id,
// campaign_id, contact_id, step_number).
type ActivityRepo struct {
	db *sql.DB
}

// GetOrCreate returns the activity row for the given key, creating an empty
// one (all flags false) if none exists yet.
func (r *ActivityRepo) GetOrCreate(ctx context.Context, workspaceID, campaignID, contactID string, stepNumber int) (*domain.EmailActivity, error) {
	a, err := r.get(ctx, workspaceID, campaignID, contactID, stepNumber)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO email_activities (workspace_id, campaign_id, contact_id, step_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, campaign_id, contact_id, step_number) DO NOTHING`,
		workspaceID, campaignID, contactID, stepNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create email activity: %w", err)
	}
	return r.get(ctx, workspaceID, campaignID, contactID, stepNumber)
}

func (r *ActivityRepo) get(ctx context.Context, workspaceID, campaignID, contactID string, stepNumber int) (*domain.EmailActivity, error) {
	var a domain.EmailActivity
	var sentAt, firstOpenedAt, firstClickedAt, repliedAt, bounceType, bounceReason, replyText, replyCategory, replySentiment sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, campaign_id, contact_id, step_number,
		       sent, sent_at, opened, first_opened_at, open_count,
		       clicked, first_clicked_at, click_count,
		       replied, replied_at, reply_text, reply_category, reply_sentiment,
		       bounced, bounce_type, bounce_reason, unsubscribed
		FROM email_activities
		WHERE workspace_id = $1 AND campaign_id = $2 AND contact_id = $3 AND step_number = $4`,
		workspaceID, campaignID, contactID, stepNumber,
	).Scan(&a.ID, &a.WorkspaceID, &a.CampaignID, &a.ContactID, &a.StepNumber,
		&a.Sent, &sentAt, &a.Opened, &firstOpenedAt, &a.OpenCount,
		&a.Clicked, &firstClickedAt, &a.ClickCount,
		&a.Replied, &repliedAt, &replyText, &replyCategory, &replySentiment,
		&a.Bounced, &bounceType, &bounceReason, &a.Unsubscribed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get email activity: %w", err)
	}
	a.SentAt = sentAt.String
	a.FirstOpenedAt = firstOpenedAt.String
	a.FirstClickedAt = firstClickedAt.String
	a.RepliedAt = repliedAt.String
	a.ReplyText = replyText.String
	a.ReplyCategory = domain.ReplyCategory(replyCategory.String)
	a.ReplySentiment = domain.ReplySentiment(replySentiment.String)
	a.BounceType = domain.BounceType(bounceType.String)
	a.BounceReason = bounceReason.String
	return &a, nil
}

// ContactActivity is one EmailActivity joined with enough of its parent
// Campaign to tell a cross-provider caller (contact-search) which provider
// and campaign it belongs to without a second round trip.
type ContactActivity struct {
	domain.EmailActivity
	Provider     domain.Provider
	CampaignName string
}

// ListByContact returns every EmailActivity for a contact across all
// campaigns and providers in the workspace, newest step first, for
// contact-search's cross-provider presence check.
func (r *ActivityRepo) ListByContact(ctx context.Context, workspaceID, contactID string) ([]ContactActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.workspace_id, a.campaign_id, a.contact_id, a.step_number,
		       a.sent, a.sent_at, a.opened, a.first_opened_at, a.open_count,
		       a.clicked, a.first_clicked_at, a.click_count,
		       a.replied, a.replied_at, a.reply_text, a.reply_category, a.reply_sentiment,
		       a.bounced, a.bounce_type, a.bounce_reason, a.unsubscribed,
		       c.provider, c.name
		FROM email_activities a
		JOIN campaigns c ON c.id = a.campaign_id
		WHERE a.workspace_id = $1 AND a.contact_id = $2
		ORDER BY a.step_number DESC`,
		workspaceID, contactID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list activities by contact: %w", err)
	}
	defer rows.Close()

	var out []ContactActivity
	for rows.Next() {
		var a ContactActivity
		var sentAt, firstOpenedAt, firstClickedAt, repliedAt, bounceType, bounceReason, replyText, replyCategory, replySentiment sql.NullString
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.CampaignID, &a.ContactID, &a.StepNumber,
			&a.Sent, &sentAt, &a.Opened, &firstOpenedAt, &a.OpenCount,
			&a.Clicked, &firstClickedAt, &a.ClickCount,
			&a.Replied, &repliedAt, &replyText, &replyCategory, &replySentiment,
			&a.Bounced, &bounceType, &bounceReason, &a.Unsubscribed,
			&a.Provider, &a.CampaignName); err != nil {
			return nil, fmt.Errorf("postgres: scan contact activity: %w", err)
		}
		a.SentAt = sentAt.String
		a.FirstOpenedAt = firstOpenedAt.String
		a.FirstClickedAt = firstClickedAt.String
		a.RepliedAt = repliedAt.String
		a.ReplyText = replyText.String
		a.ReplyCategory = domain.ReplyCategory(replyCategory.String)
		a.ReplySentiment = domain.ReplySentiment(replySentiment.String)
		a.BounceType = domain.BounceType(bounceType.String)
		a.BounceReason = bounceReason.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkSent sets sent=true and sent_at, only the first time (idempotent per
// Testable Property 4 — duplicate "sent" events must not double-count).
func (r *ActivityRepo) MarkSent(ctx context.Context, id, sentAt string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_activities SET sent = true, sent_at = COALESCE(sent_at, $2)
		WHERE id = $1`, id, sentAt)
	if err != nil {
		return fmt.Errorf("postgres: mark activity sent: %w", err)
	}
	return nil
}

// MarkOpened sets opened=true, stamps first_opened_at once, and bumps
// open_count unconditionally — repeat opens are expected and counted.
func (r *ActivityRepo) MarkOpened(ctx context.Context, id, openedAt string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_activities
		SET opened = true, first_opened_at = COALESCE(first_opened_at, $2), open_count = open_count + 1
		WHERE id = $1`, id, openedAt)
	if err != nil {
		return fmt.Errorf("postgres: mark activity opened: %w", err)
	}
	return nil
}

// MarkClicked sets clicked=true, stamps first_clicked_at once, and bumps
// click_count unconditionally.
func (r *ActivityRepo) MarkClicked(ctx context.Context, id, clickedAt string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_activities
		SET clicked = true, first_clicked_at = COALESCE(first_clicked_at, $2), click_count = click_count + 1
		WHERE id = $1`, id, clickedAt)
	if err != nil {
		return fmt.Errorf("postgres: mark activity clicked: %w", err)
	}
	return nil
}

// MarkReplied records a reply's text, category, and sentiment. A later
// category_changed event overwrites category and sentiment only.
func (r *ActivityRepo) MarkReplied(ctx context.Context, id, repliedAt, replyText string, category domain.ReplyCategory, sentiment domain.ReplySentiment) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_activities
		SET replied = true, replied_at = COALESCE(replied_at, $2), reply_text = $3,
		    reply_category = $4, reply_sentiment = $5
		WHERE id = $1`, id, repliedAt, replyText, category, sentiment)
	if err != nil {
		return fmt.Errorf("postgres: mark activity replied: %w", err)
	}
	return nil
}

// UpdateReplyCategory changes reply_category/reply_sentiment without
// touching reply_text or replied_at, for a category_changed event.
func (r *ActivityRepo) UpdateReplyCategory(ctx context.Context, id string, category domain.ReplyCategory, sentiment domain.ReplySentiment) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_activities SET reply_category = $2, reply_sentiment = $3 WHERE id = $1`,
		id, category, sentiment)
	if err != nil {
		return fmt.Errorf("postgres: update activity reply category: %w", err)
	}
	return nil
}

// MarkBounced sets bounced=true and records the bounce type/reason.
func (r *ActivityRepo) MarkBounced(ctx context.Context, id string, bounceType domain.BounceType, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_activities SET bounced = true, bounce_type = $2, bounce_reason = $3 WHERE id = $1`,
		id, bounceType, reason)
	if err != nil {
		return fmt.Errorf("postgres: mark activity bounced: %w", err)
	}
	return nil
}

// MarkUnsubscribed sets unsubscribed=true.
func (r *ActivityRepo) MarkUnsubscribed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE email_activities SET unsubscribed = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: mark activity unsubscribed: %w", err)
	}
	return nil
}
