package domain

// ReplySentiment is the canonical sentiment a reply category maps to.
type ReplySentiment string

const (
	SentimentPositive ReplySentiment = "positive"
	SentimentNegative ReplySentiment = "negative"
	SentimentNeutral  ReplySentiment = "neutral"
)

// ReplyCategory is the canonical reply classification a provider's
// free-text lead category maps to.
type ReplyCategory string

const (
	CategoryInterested     ReplyCategory = "interested"
	CategoryMeetingRequest ReplyCategory = "meeting_request"
	CategoryNotInterested  ReplyCategory = "not_interested"
	CategoryOutOfOffice    ReplyCategory = "out_of_office"
	CategoryReferral       ReplyCategory = "referral"
	CategoryUnsubscribe    ReplyCategory = "unsubscribe"
	CategoryNeutral        ReplyCategory = "neutral"
)

// BounceType distinguishes hard/soft bounce handling.
type BounceType string

const (
	BounceHard BounceType = "hard"
	BounceSoft BounceType = "soft"
)

// EmailActivity is the unified per-contact, per-step record of engagement
// for a campaign. Unique by (WorkspaceID, CampaignID, ContactID, StepNumber).
// Flags are set monotonically: a later event never un-sets an earlier one.
type EmailActivity struct {
	ID               string         `json:"id" db:"id"`
	WorkspaceID      string         `json:"workspace_id" db:"workspace_id"`
	CampaignID       string         `json:"campaign_id" db:"campaign_id"`
	ContactID        string         `json:"contact_id" db:"contact_id"`
	StepNumber       int            `json:"step_number" db:"step_number"`
	Sent             bool           `json:"sent" db:"sent"`
	SentAt           string         `json:"sent_at,omitempty" db:"sent_at"`
	Opened           bool           `json:"opened" db:"opened"`
	FirstOpenedAt    string         `json:"first_opened_at,omitempty" db:"first_opened_at"`
	OpenCount        int64          `json:"open_count" db:"open_count"`
	Clicked          bool           `json:"clicked" db:"clicked"`
	FirstClickedAt   string         `json:"first_clicked_at,omitempty" db:"first_clicked_at"`
	ClickCount       int64          `json:"click_count" db:"click_count"`
	Replied          bool           `json:"replied" db:"replied"`
	RepliedAt        string         `json:"replied_at,omitempty" db:"replied_at"`
	ReplyText        string         `json:"reply_text,omitempty" db:"reply_text"`
	ReplyCategory    ReplyCategory  `json:"reply_category,omitempty" db:"reply_category"`
	ReplySentiment   ReplySentiment `json:"reply_sentiment,omitempty" db:"reply_sentiment"`
	Bounced          bool           `json:"bounced" db:"bounced"`
	BounceType       BounceType     `json:"bounce_type,omitempty" db:"bounce_type"`
	BounceReason     string         `json:"bounce_reason,omitempty" db:"bounce_reason"`
	Unsubscribed     bool           `json:"unsubscribed" db:"unsubscribed"`
}

// WebhookEventType is the dispatch tag for an inbound provider event.
type WebhookEventType string

const (
	EventSent             WebhookEventType = "sent"
	EventOpened           WebhookEventType = "opened"
	EventClicked          WebhookEventType = "clicked"
	EventReplied          WebhookEventType = "replied"
	EventBounced          WebhookEventType = "bounced"
	EventUnsubscribed     WebhookEventType = "unsubscribed"
	EventCategoryChanged  WebhookEventType = "category_changed"
)

// WebhookEvent is the raw event log row. Unique by (Provider, EventID);
// duplicate inserts are idempotent no-ops.
type WebhookEvent struct {
	ID          string           `json:"id" db:"id"`
	Provider    Provider         `json:"provider" db:"provider"`
	EventID     string           `json:"event_id" db:"event_id"`
	EventType   WebhookEventType `json:"event_type" db:"event_type"`
	Payload     []byte           `json:"-" db:"payload"`
	CampaignID  *string          `json:"campaign_id,omitempty" db:"campaign_id"`
	Processed   bool             `json:"processed" db:"processed"`
	ProcessedAt string           `json:"processed_at,omitempty" db:"processed_at"`
	ReceivedAt  string           `json:"received_at" db:"received_at"`
}
