// Package deltaengine turns a provider's lifetime counters into cumulative
// and daily-metric writes. It holds no state of its own: every decision is
// a pure function of the counters just fetched and the persisted
// cumulative row, so it is exercised directly from unit tests without a
// database.
package deltaengine

import (
	"context"
	"fmt"

	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/pkg/logger"
)

// CumulativeStore is the subset of CumulativeRepo the engine needs.
type CumulativeStore interface {
	Get(ctx context.Context, campaignID string) (*domain.CampaignCumulative, error)
	InsertBaseline(ctx context.Context, c *domain.CampaignCumulative) error
	Update(ctx context.Context, campaignID string, lc domain.LifetimeCounters, syncedAt string) error
}

// DailyMetricStore is the subset of DailyMetricRepo the engine needs.
type DailyMetricStore interface {
	UpsertDelta(ctx context.Context, campaignID, metricDate string, m domain.CampaignDailyMetric) error
}

// NotFoundChecker reports whether an error from CumulativeStore.Get means
// no cumulative row exists yet (first sync). Callers supply one that
// recognises their repository's own not-found error.
type NotFoundChecker func(error) bool

// Engine applies the delta-computation rules against a CumulativeStore and
// DailyMetricStore.
type Engine struct {
	cumulatives CumulativeStore
	daily       DailyMetricStore
	isNotFound  NotFoundChecker
}

// New builds an Engine. isNotFound must report whether an error returned by
// CumulativeStore.Get means "no row yet" versus a real failure.
func New(cumulatives CumulativeStore, daily DailyMetricStore, isNotFound NotFoundChecker) *Engine {
	return &Engine{cumulatives: cumulatives, daily: daily, isNotFound: isNotFound}
}

// Apply runs one campaign's worth of the Delta Engine: it upserts
// CampaignCumulative and writes zero or one CampaignDailyMetric row.
// createdAt and today are both "YYYY-MM-DD" dates in UTC.
func (e *Engine) Apply(ctx context.Context, campaignID string, lc domain.LifetimeCounters, createdAt, today string) error {
	prior, err := e.cumulatives.Get(ctx, campaignID)
	if err != nil {
		if !e.isNotFound(err) {
			return fmt.Errorf("deltaengine: load cumulative: %w", err)
		}
		return e.applyFirstSync(ctx, campaignID, lc, createdAt, today)
	}
	return e.applySubsequentSync(ctx, campaignID, lc, prior, today)
}

func (e *Engine) applyFirstSync(ctx context.Context, campaignID string, lc domain.LifetimeCounters, createdAt, today string) error {
	baselineDate := createdAt
	if baselineDate == "" {
		baselineDate = today
	}

	c := &domain.CampaignCumulative{
		CampaignID:      campaignID,
		Sent:            lc.Sent,
		Opened:          lc.Opened,
		Clicked:         lc.Clicked,
		Replied:         lc.Replied,
		Bounced:         lc.Bounced,
		PositiveReplies: lc.PositiveReplies,
		BaselineSent:    lc.Sent,
		FirstSyncedAt:   today,
	}
	if err := e.cumulatives.InsertBaseline(ctx, c); err != nil {
		return fmt.Errorf("deltaengine: insert baseline cumulative: %w", err)
	}

	if lc.Sent <= 0 {
		return nil
	}

	return e.daily.UpsertDelta(ctx, campaignID, baselineDate, domain.CampaignDailyMetric{
		CampaignID:    campaignID,
		MetricDate:    baselineDate,
		SentCount:     lc.Sent,
		OpenedCount:   lc.Opened,
		ClickedCount:  lc.Clicked,
		RepliedCount:  lc.Replied,
		PositiveCount: lc.PositiveReplies,
		BouncedCount:  lc.Bounced,
	})
}

func (e *Engine) applySubsequentSync(ctx context.Context, campaignID string, lc domain.LifetimeCounters, prior *domain.CampaignCumulative, today string) error {
	deltaSent := nonNegative(lc.Sent - prior.Sent)
	deltaOpened := nonNegative(lc.Opened - prior.Opened)
	deltaClicked := nonNegative(lc.Clicked - prior.Clicked)
	deltaReplied := nonNegative(lc.Replied - prior.Replied)
	deltaPositive := nonNegative(lc.PositiveReplies - prior.PositiveReplies)
	deltaBounced := nonNegative(lc.Bounced - prior.Bounced)

	if lc.Sent < prior.Sent || lc.Opened < prior.Opened || lc.Replied < prior.Replied {
		logger.Warn("deltaengine.counter_regression", "campaign_id", campaignID,
			"prior_sent", prior.Sent, "new_sent", lc.Sent,
			"prior_opened", prior.Opened, "new_opened", lc.Opened,
			"prior_replied", prior.Replied, "new_replied", lc.Replied)
	}

	if err := e.cumulatives.Update(ctx, campaignID, lc, today); err != nil {
		return fmt.Errorf("deltaengine: update cumulative: %w", err)
	}

	if deltaSent <= 0 && deltaOpened <= 0 && deltaReplied <= 0 {
		return nil
	}

	return e.daily.UpsertDelta(ctx, campaignID, today, domain.CampaignDailyMetric{
		CampaignID:    campaignID,
		MetricDate:    today,
		SentCount:     deltaSent,
		OpenedCount:   deltaOpened,
		ClickedCount:  deltaClicked,
		RepliedCount:  deltaReplied,
		PositiveCount: deltaPositive,
		BouncedCount:  deltaBounced,
	})
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
