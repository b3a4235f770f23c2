package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("postgres: not found")

// WorkspaceRepo reads the tenant table; workspace creation/administration is
// out of scope for this backplane.
type WorkspaceRepo struct {
	db *sql.DB
}

// Get fetches a Workspace by id.
func (r *WorkspaceRepo) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	var w domain.Workspace
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM workspaces WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get workspace: %w", err)
	}
	return &w, nil
}
