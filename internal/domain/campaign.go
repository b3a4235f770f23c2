package domain

// CampaignStatus is the unified status of a provider campaign or sequence.
type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "active"
	CampaignPaused   CampaignStatus = "paused"
	CampaignStopped  CampaignStatus = "stopped"
	CampaignDraft    CampaignStatus = "draft"
	CampaignArchived CampaignStatus = "archived"
	CampaignUnknown  CampaignStatus = "unknown"
)

// Campaign is the unified representation of a provider campaign or
// sequence. Unique by (WorkspaceID, Provider, PlatformID). Lifetime totals
// are monotonically non-decreasing except after an explicit reset.
type Campaign struct {
	ID               string         `json:"id" db:"id"`
	WorkspaceID      string         `json:"workspace_id" db:"workspace_id"`
	Provider         Provider       `json:"provider" db:"provider"`
	PlatformID       string         `json:"platform_id" db:"platform_id"`
	Name             string         `json:"name" db:"name"`
	Status           CampaignStatus `json:"status" db:"status"`
	CreatedAt        *string        `json:"created_at,omitempty" db:"created_at"`
	TotalSent        int64          `json:"total_sent" db:"total_sent"`
	TotalOpened      int64          `json:"total_opened" db:"total_opened"`
	TotalClicked     int64          `json:"total_clicked" db:"total_clicked"`
	TotalReplied     int64          `json:"total_replied" db:"total_replied"`
	TotalBounced     int64          `json:"total_bounced" db:"total_bounced"`
	PositiveReplies  int64          `json:"positive_replies" db:"positive_replies"`
	Meetings         int64          `json:"meetings" db:"meetings"`
}

// SequenceStep is one ordered email in a campaign's cadence. Unique by
// (CampaignID, StepNumber).
type SequenceStep struct {
	ID                      string   `json:"id" db:"id"`
	CampaignID              string   `json:"campaign_id" db:"campaign_id"`
	StepNumber              int      `json:"step_number" db:"step_number"`
	Name                    string   `json:"name" db:"name"`
	Subject                 string   `json:"subject" db:"subject"`
	Body                    string   `json:"body" db:"body"`
	BodyPreview             string   `json:"body_preview" db:"body_preview"`
	DelayDays               int      `json:"delay_days" db:"delay_days"`
	PersonalizationVariables []string `json:"personalization_variables" db:"personalization_variables"`
}

// LifetimeCounters is the normalized set of per-campaign lifetime totals a
// provider adapter fetches, before the Delta Engine reconciles them against
// the persisted CampaignCumulative.
type LifetimeCounters struct {
	Sent            int64
	Opened          int64
	Clicked         int64
	Replied         int64
	Bounced         int64
	PositiveReplies int64
}

// CampaignSummary is the minimal per-campaign listing a provider adapter's
// list endpoint returns, before stats/steps are fetched.
type CampaignSummary struct {
	PlatformID string
	Name       string
	Status     CampaignStatus
	CreatedAt  string // ISO-8601 date, may be empty
}

// CampaignCumulative is the last-observed lifetime counter snapshot used as
// the Delta Engine's baseline. Unique by CampaignID.
type CampaignCumulative struct {
	CampaignID      string `json:"campaign_id" db:"campaign_id"`
	Sent            int64  `json:"sent" db:"sent"`
	Opened          int64  `json:"opened" db:"opened"`
	Clicked         int64  `json:"clicked" db:"clicked"`
	Replied         int64  `json:"replied" db:"replied"`
	Bounced         int64  `json:"bounced" db:"bounced"`
	PositiveReplies int64  `json:"positive_replies" db:"positive_replies"`
	BaselineSent    int64  `json:"baseline_sent" db:"baseline_sent"`
	FirstSyncedAt   string `json:"first_synced_at" db:"first_synced_at"`
	LastSyncedAt    string `json:"last_synced_at" db:"last_synced_at"`
}
