package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ignite/outreach-sync/internal/domain"
)

// StepRepo persists SequenceStep rows, unique by (campaign_id, step_number).
type StepRepo struct {
	db *sql.DB
}

// Upsert writes a SequenceStep, overwriting content fields on conflict
// since a provider may edit step copy between syncs.
func (r *StepRepo) Upsert(ctx context.Context, s *domain.SequenceStep) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sequence_steps (campaign_id, step_number, name, subject, body, body_preview, delay_days, personalization_variables)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (campaign_id, step_number)
		DO UPDATE SET name = excluded.name, subject = excluded.subject, body = excluded.body,
		              body_preview = excluded.body_preview, delay_days = excluded.delay_days,
		              personalization_variables = excluded.personalization_variables`,
		s.CampaignID, s.StepNumber, s.Name, s.Subject, s.Body, s.BodyPreview, s.DelayDays,
		strings.Join(s.PersonalizationVariables, ","),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert sequence step: %w", err)
	}
	return nil
}
