// Package webhook implements per-provider inbound event ingestion: HMAC
// signature verification, payload validation and sanitization, the fixed
// reply-category mapping table, and dispatch onto EmailActivity plus the
// atomic counter RPCs.
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/pkg/logger"
)

// CampaignResolver resolves a provider's external campaign id to an
// internal Campaign row.
type CampaignResolver interface {
	GetByPlatformID(ctx context.Context, workspaceID string, provider domain.Provider, platformID string) (*domain.Campaign, error)
}

// ContactStore is the subset of ContactRepo Intake needs. Company
// resolution from the email domain happens inside the repository, not here.
type ContactStore interface {
	GetOrCreate(ctx context.Context, workspaceID, email string) (*domain.Contact, error)
	MarkBounced(ctx context.Context, id string) error
	MarkDoNotEmail(ctx context.Context, id string) error
}

// ActivityStore is the subset of ActivityRepo Intake needs.
type ActivityStore interface {
	GetOrCreate(ctx context.Context, workspaceID, campaignID, contactID string, stepNumber int) (*domain.EmailActivity, error)
	MarkSent(ctx context.Context, id, sentAt string) error
	MarkOpened(ctx context.Context, id, openedAt string) error
	MarkClicked(ctx context.Context, id, clickedAt string) error
	MarkReplied(ctx context.Context, id, repliedAt, replyText string, category domain.ReplyCategory, sentiment domain.ReplySentiment) error
	UpdateReplyCategory(ctx context.Context, id string, category domain.ReplyCategory, sentiment domain.ReplySentiment) error
	MarkBounced(ctx context.Context, id string, bounceType domain.BounceType, reason string) error
	MarkUnsubscribed(ctx context.Context, id string) error
}

// EventLog is the subset of WebhookEventRepo Intake needs.
type EventLog interface {
	Insert(ctx context.Context, e *domain.WebhookEvent) (bool, error)
	MarkProcessed(ctx context.Context, provider domain.Provider, eventID, processedAt string) error
}

// Counters is the subset of RPCRepo Intake needs.
type Counters interface {
	IncrementCampaignMetric(ctx context.Context, campaignID, field string, delta int64) error
	RecordDailyMetric(ctx context.Context, campaignID, metricDate, field string, delta int64) error
	RecordHourlyMetric(ctx context.Context, workspaceID, campaignID, metricDate string, dayOfWeek, hourOfDay int, field string, delta int64) error
	UpdatePositiveReplyCounts(ctx context.Context, campaignID, metricDate string, delta int64) error
}

// Threads appends MessageThread rows for replies.
type Threads interface {
	Insert(ctx context.Context, t *domain.MessageThread) error
}

// Clicks appends LinkClick rows for link-click events.
type Clicks interface {
	Insert(ctx context.Context, c *domain.LinkClick) error
}

// Intake wires the repositories needed to apply a validated Event.
type Intake struct {
	Campaigns CampaignResolver
	Contacts  ContactStore
	Activity  ActivityStore
	Events    EventLog
	Counters  Counters
	Threads   Threads
	Clicks    Clicks
}

// Apply runs deduplication, campaign resolution, storage, and dispatch for one validated
// event. The caller is responsible for signature verification (step 1) and
// ParseAndValidate (step 2). The returned bool reports whether the event
// was dispatched against a resolved campaign ("processed") as opposed to
// merely logged ("stored") — a duplicate or an unknown-campaign event both
// report false, matching the `status: 'processed'|'stored'` response contract.
func (in *Intake) Apply(ctx context.Context, workspaceID string, provider domain.Provider, ev *Event, rawPayload []byte) (bool, error) {
	receivedAt := now(ev.Timestamp)

	campaign, err := in.Campaigns.GetByPlatformID(ctx, workspaceID, provider, ev.CampaignID)
	unresolved := err != nil

	var campaignIDPtr *string
	if !unresolved {
		campaignIDPtr = &campaign.ID
	}

	logEvent := &domain.WebhookEvent{
		Provider:   provider,
		EventID:    ev.EventID,
		EventType:  ev.EventType,
		Payload:    rawPayload,
		CampaignID: campaignIDPtr,
		ReceivedAt: receivedAt,
	}
	inserted, err := in.Events.Insert(ctx, logEvent)
	if err != nil {
		return false, fmt.Errorf("webhook: insert event log: %w", err)
	}
	if !inserted {
		return false, nil
	}
	if unresolved {
		// Left processed=false; a later sync may resolve the campaign and
		// this event can be replayed, though replay is not implemented here.
		return false, nil
	}

	if err := in.dispatch(ctx, workspaceID, campaign.ID, ev, receivedAt); err != nil {
		return false, err
	}

	if err := in.Events.MarkProcessed(ctx, provider, ev.EventID, receivedAt); err != nil {
		return false, err
	}
	return true, nil
}

func (in *Intake) dispatch(ctx context.Context, workspaceID, campaignID string, ev *Event, receivedAt string) error {
	metricDate := receivedAt[:10]
	dow, hod := dayAndHour(receivedAt)

	contact, err := in.Contacts.GetOrCreate(ctx, workspaceID, ev.ContactEmail)
	if err != nil {
		return fmt.Errorf("webhook: resolve contact: %w", err)
	}

	activity, err := in.Activity.GetOrCreate(ctx, workspaceID, campaignID, contact.ID, ev.StepNumber)
	if err != nil {
		return fmt.Errorf("webhook: resolve activity: %w", err)
	}

	switch ev.EventType {
	case domain.EventSent:
		if err := in.Activity.MarkSent(ctx, activity.ID, receivedAt); err != nil {
			return err
		}
		return in.bumpAll(ctx, workspaceID, campaignID, metricDate, dow, hod, "sent", 1)

	case domain.EventOpened:
		if err := in.Activity.MarkOpened(ctx, activity.ID, receivedAt); err != nil {
			return err
		}
		return in.bumpAll(ctx, workspaceID, campaignID, metricDate, dow, hod, "opened", 1)

	case domain.EventClicked:
		if err := in.Activity.MarkClicked(ctx, activity.ID, receivedAt); err != nil {
			return err
		}
		if ev.LinkURL != "" {
			if err := in.Clicks.Insert(ctx, &domain.LinkClick{ActivityID: activity.ID, URL: ev.LinkURL, ClickedAt: receivedAt}); err != nil {
				return fmt.Errorf("webhook: insert link click: %w", err)
			}
		}
		return in.Counters.RecordHourlyMetric(ctx, workspaceID, campaignID, metricDate, dow, hod, "clicked", 1)

	case domain.EventReplied:
		category, sentiment := MapCategory(ev.LeadCategory)
		if err := in.Activity.MarkReplied(ctx, activity.ID, receivedAt, ev.ReplyText, category, sentiment); err != nil {
			return err
		}
		if err := in.Threads.Insert(ctx, &domain.MessageThread{ActivityID: activity.ID, Body: ev.ReplyText, ReceivedAt: receivedAt}); err != nil {
			return fmt.Errorf("webhook: insert message thread: %w", err)
		}
		if err := in.bumpAll(ctx, workspaceID, campaignID, metricDate, dow, hod, "replied", 1); err != nil {
			return err
		}
		if sentiment == domain.SentimentPositive {
			if err := in.Counters.UpdatePositiveReplyCounts(ctx, campaignID, metricDate, 1); err != nil {
				return fmt.Errorf("webhook: update positive reply counts: %w", err)
			}
		}
		return nil

	case domain.EventBounced:
		bounceType := domain.BounceType(ev.BounceType)
		if err := in.Activity.MarkBounced(ctx, activity.ID, bounceType, ev.BounceReason); err != nil {
			return err
		}
		if err := in.Contacts.MarkBounced(ctx, contact.ID); err != nil {
			return fmt.Errorf("webhook: mark contact bounced: %w", err)
		}
		if err := in.Counters.IncrementCampaignMetric(ctx, campaignID, "bounced", 1); err != nil {
			return err
		}
		return in.Counters.RecordDailyMetric(ctx, campaignID, metricDate, "bounced", 1)

	case domain.EventUnsubscribed:
		if err := in.Activity.MarkUnsubscribed(ctx, activity.ID); err != nil {
			return err
		}
		return in.Contacts.MarkDoNotEmail(ctx, contact.ID)

	case domain.EventCategoryChanged:
		category, sentiment := MapCategory(ev.LeadCategory)
		wasPositive := activity.ReplySentiment == domain.SentimentPositive
		if err := in.Activity.UpdateReplyCategory(ctx, activity.ID, category, sentiment); err != nil {
			return err
		}
		if sentiment == domain.SentimentPositive && !wasPositive {
			return in.Counters.UpdatePositiveReplyCounts(ctx, campaignID, metricDate, 1)
		}
		return nil

	default:
		logger.Warn("webhook.unknown_event_type", "event_type", string(ev.EventType))
		return nil
	}
}

// bumpAll increments the campaign-level, hourly, and daily counters for a
// single field in one dispatch, the three-way fan-out named for
// sent/opened/replied.
func (in *Intake) bumpAll(ctx context.Context, workspaceID, campaignID, metricDate string, dow, hod int, field string, delta int64) error {
	if err := in.Counters.IncrementCampaignMetric(ctx, campaignID, field, delta); err != nil {
		return err
	}
	if err := in.Counters.RecordHourlyMetric(ctx, workspaceID, campaignID, metricDate, dow, hod, field, delta); err != nil {
		return err
	}
	return in.Counters.RecordDailyMetric(ctx, campaignID, metricDate, field, delta)
}

func now(timestamp string) string {
	if timestamp == "" {
		return time.Now().UTC().Format(time.RFC3339)
	}
	if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return timestamp
}

func dayAndHour(rfc3339 string) (dayOfWeek, hourOfDay int) {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		t = time.Now().UTC()
	}
	return int(t.Weekday()), t.Hour()
}
