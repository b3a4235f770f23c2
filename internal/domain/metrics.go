package domain

// CampaignDailyMetric is a per-campaign, per-calendar-date counter row.
// Unique by (CampaignID, MetricDate).
type CampaignDailyMetric struct {
	CampaignID      string `json:"campaign_id" db:"campaign_id"`
	MetricDate      string `json:"metric_date" db:"metric_date"` // YYYY-MM-DD
	SentCount       int64  `json:"sent_count" db:"sent_count"`
	OpenedCount     int64  `json:"opened_count" db:"opened_count"`
	ClickedCount    int64  `json:"clicked_count" db:"clicked_count"`
	RepliedCount    int64  `json:"replied_count" db:"replied_count"`
	PositiveCount   int64  `json:"positive_count" db:"positive_count"`
	BouncedCount    int64  `json:"bounced_count" db:"bounced_count"`
}

// WorkspaceDailyMetric is the sum of CampaignDailyMetric rows grouped by
// (WorkspaceID, Provider, MetricDate) over the trailing window. Unique by
// that tuple.
type WorkspaceDailyMetric struct {
	WorkspaceID     string   `json:"workspace_id" db:"workspace_id"`
	Provider        Provider `json:"provider" db:"provider"`
	MetricDate      string   `json:"metric_date" db:"metric_date"`
	SentCount       int64    `json:"sent_count" db:"sent_count"`
	OpenedCount     int64    `json:"opened_count" db:"opened_count"`
	ClickedCount    int64    `json:"clicked_count" db:"clicked_count"`
	RepliedCount    int64    `json:"replied_count" db:"replied_count"`
	PositiveCount   int64    `json:"positive_count" db:"positive_count"`
	BouncedCount    int64    `json:"bounced_count" db:"bounced_count"`
	ActiveCampaigns int64    `json:"active_campaigns" db:"active_campaigns"`
}

// HourlyMetric accumulates send/open/click/reply counters for one
// (WorkspaceID, CampaignID, MetricDate, DayOfWeek, HourOfDay) bucket. Unique
// by that tuple.
type HourlyMetric struct {
	WorkspaceID  string `json:"workspace_id" db:"workspace_id"`
	CampaignID   string `json:"campaign_id" db:"campaign_id"`
	MetricDate   string `json:"metric_date" db:"metric_date"`
	DayOfWeek    int    `json:"day_of_week" db:"day_of_week"` // 0=Sunday
	HourOfDay    int    `json:"hour_of_day" db:"hour_of_day"` // 0-23
	EmailsSent   int64  `json:"emails_sent" db:"emails_sent"`
	EmailsOpened int64  `json:"emails_opened" db:"emails_opened"`
	EmailsClicked int64 `json:"emails_clicked" db:"emails_clicked"`
	EmailsReplied int64 `json:"emails_replied" db:"emails_replied"`
}
