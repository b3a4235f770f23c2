package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/outreach-sync/internal/domain"
)

// ContactRepo persists Contact, unique by (workspace_id, email).
type ContactRepo struct {
	db        *sql.DB
	companies *CompanyRepo
}

// GetOrCreate resolves a Contact by email, lazily creating a Company from
// the email domain (excluding well-known personal domains) when one
// doesn't already exist for this workspace.
func (r *ContactRepo) GetOrCreate(ctx context.Context, workspaceID, email string) (*domain.Contact, error) {
	var c domain.Contact
	var companyID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, email, company_id, email_status, do_not_email
		FROM contacts WHERE workspace_id = $1 AND email = $2`,
		workspaceID, email,
	).Scan(&c.ID, &c.WorkspaceID, &c.Email, &companyID, &c.EmailStatus, &c.DoNotEmail)
	if err == nil {
		if companyID.Valid {
			c.CompanyID = &companyID.String
		}
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("postgres: get contact: %w", err)
	}

	var compID *string
	if domain_, ok := emailDomain(email); ok && !domain.IsPersonalEmailDomain(domain_) {
		company, err := r.companies.GetOrCreate(ctx, workspaceID, domain_)
		if err != nil {
			return nil, err
		}
		compID = &company.ID
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO contacts (workspace_id, email, company_id, email_status, do_not_email)
		VALUES ($1, $2, $3, 'ok', false)
		ON CONFLICT (workspace_id, email) DO UPDATE SET email = excluded.email
		RETURNING id, workspace_id, email, company_id, email_status, do_not_email`,
		workspaceID, email, compID,
	).Scan(&c.ID, &c.WorkspaceID, &c.Email, &companyID, &c.EmailStatus, &c.DoNotEmail)
	if err != nil {
		return nil, fmt.Errorf("postgres: create contact: %w", err)
	}
	if companyID.Valid {
		c.CompanyID = &companyID.String
	}
	return &c, nil
}

// Get looks up a Contact by (workspace_id, email) without creating one,
// for read-only callers such as contact-search.
func (r *ContactRepo) Get(ctx context.Context, workspaceID, email string) (*domain.Contact, error) {
	var c domain.Contact
	var companyID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, email, company_id, email_status, do_not_email
		FROM contacts WHERE workspace_id = $1 AND email = $2`,
		workspaceID, email,
	).Scan(&c.ID, &c.WorkspaceID, &c.Email, &companyID, &c.EmailStatus, &c.DoNotEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get contact: %w", err)
	}
	if companyID.Valid {
		c.CompanyID = &companyID.String
	}
	return &c, nil
}

// MarkBounced sets a contact's email_status to bounced.
func (r *ContactRepo) MarkBounced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contacts SET email_status = 'bounced' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: mark contact bounced: %w", err)
	}
	return nil
}

// MarkDoNotEmail sets do_not_email=true, idempotently.
func (r *ContactRepo) MarkDoNotEmail(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contacts SET do_not_email = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: mark contact do-not-email: %w", err)
	}
	return nil
}

func emailDomain(email string) (string, bool) {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return "", false
	}
	return strings.ToLower(email[i+1:]), true
}

// CompanyRepo persists Company, unique by (workspace_id, domain).
type CompanyRepo struct {
	db *sql.DB
}

// GetOrCreate looks up a Company by domain, creating one named after the
// domain if absent.
func (r *CompanyRepo) GetOrCreate(ctx context.Context, workspaceID, domain_ string) (*domain.Company, error) {
	var c domain.Company
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO companies (workspace_id, domain, name)
		VALUES ($1, $2, $2)
		ON CONFLICT (workspace_id, domain) DO UPDATE SET domain = excluded.domain
		RETURNING id, workspace_id, domain, name`,
		workspaceID, domain_,
	).Scan(&c.ID, &c.WorkspaceID, &c.Domain, &c.Name)
	if err != nil {
		return nil, fmt.Errorf("postgres: get or create company: %w", err)
	}
	return &c, nil
}
