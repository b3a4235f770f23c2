package domain

// Provider identifies one of the two outbound-sequencing platforms the
// backplane ingests from.
type Provider string

const (
	ProviderA Provider = "provider_a"
	ProviderB Provider = "provider_b"
)

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	return p == ProviderA || p == ProviderB
}

// SyncStatus is the lifecycle state of an ApiConnection's most recent sync.
type SyncStatus string

const (
	SyncPending            SyncStatus = "pending"
	SyncSyncing            SyncStatus = "syncing"
	SyncPartial            SyncStatus = "partial"
	SyncSuccess            SyncStatus = "success"
	SyncCompletedWithError SyncStatus = "completed_with_errors"
	SyncStopped            SyncStatus = "stopped"
	SyncError              SyncStatus = "error"
)

// Workspace is the tenant boundary; it owns every other entity in the store.
type Workspace struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// SyncProgress is the resumable state of a single (workspace, provider)
// sync, persisted verbatim as JSON on ApiConnection.SyncProgress so a batch
// can be interrupted and resumed by a fresh process.
type SyncProgress struct {
	BatchIndex          int            `json:"batch_index"`
	CampaignIndex       int            `json:"campaign_index"`
	TotalCampaigns      int            `json:"total_campaigns"`
	CurrentCampaignName string         `json:"current_campaign_name,omitempty"`
	CachedCampaignList  []CampaignRef  `json:"cached_campaign_list,omitempty"`
	Step                string         `json:"step,omitempty"`
	Errors              []string       `json:"errors,omitempty"`
	HeartbeatAt         string         `json:"heartbeat_at,omitempty"`
}

// CampaignRef is a snapshot of a provider campaign captured at list time,
// so resuming a sync never has to re-list (and thus can't reorder) and has
// everything the per-campaign upsert needs without a second lookup.
type CampaignRef struct {
	PlatformID string         `json:"platform_id"`
	Name       string         `json:"name"`
	Status     CampaignStatus `json:"status"`
	CreatedAt  string         `json:"created_at,omitempty"`
}

// ApiConnection is a per-workspace, per-provider credential plus sync state.
// Invariant: at most one row per (workspace, provider).
type ApiConnection struct {
	ID              string       `json:"id" db:"id"`
	WorkspaceID     string       `json:"workspace_id" db:"workspace_id"`
	Provider        Provider     `json:"provider" db:"provider"`
	EncryptedSecret string       `json:"-" db:"encrypted_secret"`
	IsActive        bool         `json:"is_active" db:"is_active"`
	SyncStatus      SyncStatus   `json:"sync_status" db:"sync_status"`
	LastSyncAt      *string      `json:"last_sync_at,omitempty" db:"last_sync_at"`
	LastFullSyncAt  *string      `json:"last_full_sync_at,omitempty" db:"last_full_sync_at"`
	SyncProgress    SyncProgress `json:"sync_progress" db:"sync_progress"`
	LastError       string       `json:"last_error,omitempty" db:"last_error"`
}
