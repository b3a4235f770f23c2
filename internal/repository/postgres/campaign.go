package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// CampaignRepo persists the unified Campaign table.
type CampaignRepo struct {
	db *sql.DB
}

// Upsert writes a Campaign row keyed by (workspace_id, provider,
// platform_id), the conflict key used for upserts. The campaign's
// created_at is only set on first insert — a provider's list endpoint is
// re-read every sync and must not clobber the originally observed date.
func (r *CampaignRepo) Upsert(ctx context.Context, c *domain.Campaign) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO campaigns (workspace_id, provider, platform_id, name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workspace_id, provider, platform_id)
		DO UPDATE SET name = excluded.name, status = excluded.status
		RETURNING id`,
		c.WorkspaceID, c.Provider, c.PlatformID, c.Name, c.Status, nullableString(c.CreatedAt),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("postgres: upsert campaign: %w", err)
	}
	return id, nil
}

// GetByPlatformID resolves a Campaign by its external provider id, used by
// Webhook Intake to map event.campaign_id to an internal row.
func (r *CampaignRepo) GetByPlatformID(ctx context.Context, workspaceID string, provider domain.Provider, platformID string) (*domain.Campaign, error) {
	var c domain.Campaign
	var createdAt sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, provider, platform_id, name, status, created_at,
		       total_sent, total_opened, total_clicked, total_replied, total_bounced,
		       positive_replies, meetings
		FROM campaigns WHERE workspace_id = $1 AND provider = $2 AND platform_id = $3`,
		workspaceID, provider, platformID,
	).Scan(&c.ID, &c.WorkspaceID, &c.Provider, &c.PlatformID, &c.Name, &c.Status, &createdAt,
		&c.TotalSent, &c.TotalOpened, &c.TotalClicked, &c.TotalReplied, &c.TotalBounced,
		&c.PositiveReplies, &c.Meetings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get campaign by platform id: %w", err)
	}
	if createdAt.Valid {
		c.CreatedAt = &createdAt.String
	}
	return &c, nil
}

// ListByProvider returns every Campaign row for (workspaceID, provider).
func (r *CampaignRepo) ListByProvider(ctx context.Context, workspaceID string, provider domain.Provider) ([]*domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, status FROM campaigns WHERE workspace_id = $1 AND provider = $2`,
		workspaceID, provider,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list campaigns by provider: %w", err)
	}
	defer rows.Close()

	var out []*domain.Campaign
	for rows.Next() {
		c := &domain.Campaign{WorkspaceID: workspaceID, Provider: provider}
		if err := rows.Scan(&c.ID, &c.Status); err != nil {
			return nil, fmt.Errorf("postgres: scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
