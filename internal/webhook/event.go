package webhook

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/ignite/outreach-sync/internal/domain"
)

// rawEvent is the wire shape of an inbound provider webhook payload after
// JSON decoding but before sanitization/validation.
type rawEvent struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	CampaignID   string `json:"campaign_id"`
	ContactEmail string `json:"contact_email"`
	StepNumber   int    `json:"step_number"`
	Timestamp    string `json:"timestamp"`
	LinkURL      string `json:"link_url"`
	ReplyText    string `json:"reply_text"`
	LeadCategory string `json:"lead_category"`
	BounceType   string `json:"bounce_type"`
	BounceReason string `json:"bounce_reason"`
}

// eventTypeAliases maps native provider event-type strings (checked
// case-insensitively) to the canonical dispatch tags intake.go switches on.
// Both providers are free to use their own vocabulary; anything not listed
// here falls through unchanged, so a provider that already sends a
// canonical tag ("sent", "opened", …) still works.
var eventTypeAliases = map[string]domain.WebhookEventType{
	"EMAIL_SENT":            domain.EventSent,
	"SENT":                  domain.EventSent,
	"EMAIL_OPEN":            domain.EventOpened,
	"EMAIL_OPENED":          domain.EventOpened,
	"OPEN":                  domain.EventOpened,
	"EMAIL_CLICK":           domain.EventClicked,
	"EMAIL_CLICKED":         domain.EventClicked,
	"CLICK":                 domain.EventClicked,
	"EMAIL_REPLY":           domain.EventReplied,
	"EMAIL_REPLIED":         domain.EventReplied,
	"REPLY":                 domain.EventReplied,
	"EMAIL_BOUNCE":          domain.EventBounced,
	"EMAIL_BOUNCED":         domain.EventBounced,
	"BOUNCE":                domain.EventBounced,
	"EMAIL_UNSUBSCRIBE":     domain.EventUnsubscribed,
	"EMAIL_UNSUBSCRIBED":    domain.EventUnsubscribed,
	"UNSUBSCRIBE":           domain.EventUnsubscribed,
	"UNSUBSCRIBED":          domain.EventUnsubscribed,
	"LEAD_CATEGORY_CHANGED": domain.EventCategoryChanged,
	"CATEGORY_CHANGED":      domain.EventCategoryChanged,
	"CATEGORY_CHANGE":       domain.EventCategoryChanged,
}

// normalizeEventType resolves a sanitized, as-received event_type to the
// canonical dispatch tag, falling back to the value lower-cased so a
// provider already speaking the canonical vocabulary is unaffected.
func normalizeEventType(raw string) domain.WebhookEventType {
	if canonical, ok := eventTypeAliases[strings.ToUpper(raw)]; ok {
		return canonical
	}
	return domain.WebhookEventType(strings.ToLower(raw))
}

// Event is a parsed, sanitized, validated inbound webhook event, ready for
// Intake to dispatch.
type Event struct {
	EventID      string
	EventType    domain.WebhookEventType
	CampaignID   string
	ContactEmail string
	StepNumber   int
	Timestamp    string
	LinkURL      string
	ReplyText    string
	LeadCategory string
	BounceType   string
	BounceReason string
}

// ParseAndValidate decodes body into an Event, applying the
// structural checks (required event_type, typed ids, valid email if
// present) and sanitizing pass (control-char stripping, length caps,
// http(s)-only URLs).
func ParseAndValidate(body []byte) (*Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("webhook: decode payload: %w", err)
	}
	if raw.EventType == "" {
		return nil, fmt.Errorf("webhook: missing event_type")
	}
	if raw.EventID == "" {
		return nil, fmt.Errorf("webhook: missing event_id")
	}
	if raw.ContactEmail != "" {
		if _, err := mail.ParseAddress(raw.ContactEmail); err != nil {
			return nil, fmt.Errorf("webhook: invalid contact_email: %w", err)
		}
	}

	e := &Event{
		EventID:      SanitizeString(raw.EventID),
		EventType:    normalizeEventType(SanitizeString(raw.EventType)),
		CampaignID:   SanitizeString(raw.CampaignID),
		ContactEmail: SanitizeString(raw.ContactEmail),
		StepNumber:   raw.StepNumber,
		Timestamp:    SanitizeString(raw.Timestamp),
		LinkURL:      SanitizeURL(raw.LinkURL),
		ReplyText:    SanitizeString(raw.ReplyText),
		LeadCategory: SanitizeString(raw.LeadCategory),
		BounceType:   SanitizeString(raw.BounceType),
		BounceReason: SanitizeString(raw.BounceReason),
	}
	return e, nil
}
