package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
)

// ConnectionRepo persists ApiConnection rows: one per (workspace, provider).
type ConnectionRepo struct {
	db *sql.DB
}

func scanConnection(row interface {
	Scan(dest ...any) error
}) (*domain.ApiConnection, error) {
	var c domain.ApiConnection
	var progressJSON []byte
	var lastSyncAt, lastFullSyncAt sql.NullString
	var lastError sql.NullString

	err := row.Scan(
		&c.ID, &c.WorkspaceID, &c.Provider, &c.EncryptedSecret, &c.IsActive,
		&c.SyncStatus, &lastSyncAt, &lastFullSyncAt, &progressJSON, &lastError,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: scan connection: %w", err)
	}
	if lastSyncAt.Valid {
		c.LastSyncAt = &lastSyncAt.String
	}
	if lastFullSyncAt.Valid {
		c.LastFullSyncAt = &lastFullSyncAt.String
	}
	c.LastError = lastError.String
	if len(progressJSON) > 0 {
		if err := json.Unmarshal(progressJSON, &c.SyncProgress); err != nil {
			return nil, fmt.Errorf("postgres: decode sync_progress: %w", err)
		}
	}
	return &c, nil
}

const connectionColumns = `id, workspace_id, provider, encrypted_secret, is_active, sync_status, last_sync_at, last_full_sync_at, sync_progress, last_error`

// Get fetches the single ApiConnection for (workspaceID, provider).
func (r *ConnectionRepo) Get(ctx context.Context, workspaceID string, provider domain.Provider) (*domain.ApiConnection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM api_connections WHERE workspace_id = $1 AND provider = $2`,
		workspaceID, provider,
	)
	return scanConnection(row)
}

// ListActive returns every ApiConnection with is_active=true, for the
// periodic-trigger worker to sweep.
func (r *ConnectionRepo) ListActive(ctx context.Context) ([]*domain.ApiConnection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM api_connections WHERE is_active = true`,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active connections: %w", err)
	}
	defer rows.Close()

	var out []*domain.ApiConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateSyncState persists sync_status, sync_progress, last_error, and
// optionally last_sync_at/last_full_sync_at in one statement. Each pointer
// left nil leaves the corresponding column unchanged; last_error is always
// overwritten.
func (r *ConnectionRepo) UpdateSyncState(ctx context.Context, id string, status domain.SyncStatus, progress domain.SyncProgress, lastSyncAt, lastFullSyncAt *string, lastError string) error {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("postgres: encode sync_progress: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE api_connections
		 SET sync_status = $1,
		     sync_progress = $2,
		     last_sync_at = COALESCE($3, last_sync_at),
		     last_full_sync_at = COALESCE($4, last_full_sync_at),
		     last_error = $5
		 WHERE id = $6`,
		status, progressJSON, lastSyncAt, lastFullSyncAt, lastError, id,
	)
	if err != nil {
		return fmt.Errorf("postgres: update sync state: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearSyncProgress resets sync_progress to its zero value, used by
// run_sync's reset=true path before a full re-sync.
func (r *ConnectionRepo) ClearSyncProgress(ctx context.Context, id string) error {
	empty, _ := json.Marshal(domain.SyncProgress{})
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_connections SET sync_progress = $1 WHERE id = $2`, empty, id,
	)
	if err != nil {
		return fmt.Errorf("postgres: clear sync progress: %w", err)
	}
	return nil
}
