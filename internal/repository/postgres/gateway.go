// Package postgres is the Persistence Gateway: it upserts against the
// unified store with explicit conflict keys and exposes the small set of
// atomic counter RPCs webhook handlers use instead of read-modify-write.
package postgres

import "database/sql"

// Store bundles every entity repository behind a single handle so callers
// (the orchestrator, webhook intake, the aggregator) construct one value
// and pass it down instead of wiring individual repos by hand.
type Store struct {
	db *sql.DB

	Workspaces      *WorkspaceRepo
	Connections     *ConnectionRepo
	Campaigns       *CampaignRepo
	Steps           *StepRepo
	Cumulatives     *CumulativeRepo
	DailyMetrics    *DailyMetricRepo
	WorkspaceDailyMetrics *WorkspaceDailyMetricRepo
	HourlyMetrics   *HourlyMetricRepo
	Contacts        *ContactRepo
	Companies       *CompanyRepo
	Activities      *ActivityRepo
	WebhookEvents   *WebhookEventRepo
	MessageThreads  *MessageThreadRepo
	LinkClicks      *LinkClickRepo
	RPC             *RPCRepo
}

// New wires every repository against the same *sql.DB.
func New(db *sql.DB) *Store {
	companies := &CompanyRepo{db: db}
	return &Store{
		db:                    db,
		Workspaces:            &WorkspaceRepo{db: db},
		Connections:           &ConnectionRepo{db: db},
		Campaigns:             &CampaignRepo{db: db},
		Steps:                 &StepRepo{db: db},
		Cumulatives:           &CumulativeRepo{db: db},
		DailyMetrics:          &DailyMetricRepo{db: db},
		WorkspaceDailyMetrics: &WorkspaceDailyMetricRepo{db: db},
		HourlyMetrics:         &HourlyMetricRepo{db: db},
		Contacts:              &ContactRepo{db: db, companies: companies},
		Companies:             companies,
		Activities:            &ActivityRepo{db: db},
		WebhookEvents:         &WebhookEventRepo{db: db},
		MessageThreads:        &MessageThreadRepo{db: db},
		LinkClicks:            &LinkClickRepo{db: db},
		RPC:                   &RPCRepo{db: db},
	}
}

// DB exposes the underlying pool for components that need a raw handle
// (distlock's Postgres advisory-lock fallback, health checks).
func (s *Store) DB() *sql.DB { return s.db }
