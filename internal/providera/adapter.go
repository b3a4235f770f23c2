// Package providera adapts Provider A's REST API to the providers.Adapter
// interface: a query-string API key, 250ms minimum spacing, and counter
// field names nested under /analytics and /sequences.
package providera

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/providers"
	"github.com/ignite/outreach-sync/internal/ratelimit"
)

// Adapter implements providers.Adapter for Provider A.
type Adapter struct {
	baseURL string
	client  *providers.Client
}

// New builds a Provider A Adapter.
func New(baseURL string, client *providers.Client) *Adapter {
	return &Adapter{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type campaignListItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// ListCampaigns calls GET /campaigns?api_key=… and normalizes status to
// lower case directly.
func (a *Adapter) ListCampaigns(ctx context.Context, conn *domain.ApiConnection) ([]domain.CampaignSummary, error) {
	u := fmt.Sprintf("%s/campaigns?api_key=%s", a.baseURL, url.QueryEscape(conn.EncryptedSecret))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("providera: build list campaigns request: %w", err)
	}

	raw, err := a.client.Request(ctx, domain.ProviderA, ratelimit.KeyProviderA, req, providers.RequestOpts{Retries: 3})
	if err != nil {
		return nil, fmt.Errorf("providera: list campaigns: %w", err)
	}

	var items []campaignListItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("providera: decode campaign list: %w", err)
	}

	out := make([]domain.CampaignSummary, 0, len(items))
	for _, it := range items {
		out = append(out, domain.CampaignSummary{
			PlatformID: it.ID,
			Name:       it.Name,
			Status:     mapStatus(it.Status),
			CreatedAt:  it.CreatedAt,
		})
	}
	return out, nil
}

func mapStatus(raw string) domain.CampaignStatus {
	return domain.CampaignStatus(strings.ToLower(raw))
}

// FetchCampaignStats calls GET /campaigns/{id}/analytics and probes the
// sent_count|unique_sent_count fallback pair (and analogues).
func (a *Adapter) FetchCampaignStats(ctx context.Context, conn *domain.ApiConnection, platformID string) (domain.LifetimeCounters, error) {
	u := fmt.Sprintf("%s/campaigns/%s/analytics?api_key=%s", a.baseURL, url.PathEscape(platformID), url.QueryEscape(conn.EncryptedSecret))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.LifetimeCounters{}, fmt.Errorf("providera: build stats request: %w", err)
	}

	raw, err := a.client.Request(ctx, domain.ProviderA, ratelimit.KeyProviderA, req, providers.RequestOpts{Retries: 3})
	if err != nil {
		return domain.LifetimeCounters{}, fmt.Errorf("providera: fetch stats: %w", err)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.LifetimeCounters{}, fmt.Errorf("providera: decode stats: %w", err)
	}

	sent, _ := providers.FirstNonNilNumber(obj, "sent_count", "unique_sent_count")
	opened, _ := providers.FirstNonNilNumber(obj, "unique_open_count", "open_count")
	clicked, _ := providers.FirstNonNilNumber(obj, "unique_click_count", "click_count")
	replied, _ := providers.FirstNonNilNumber(obj, "reply_count")
	bounced, _ := providers.FirstNonNilNumber(obj, "bounce_count")

	return domain.LifetimeCounters{
		Sent:    sent,
		Opened:  opened,
		Clicked: clicked,
		Replied: replied,
		Bounced: bounced,
	}, nil
}

type sequenceStepItem struct {
	StepNumber  int      `json:"step_number"`
	Name        string   `json:"name"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	DelayDays   json.Number `json:"delay_days"`
}

// FetchSteps calls GET /campaigns/{id}/sequences.
func (a *Adapter) FetchSteps(ctx context.Context, conn *domain.ApiConnection, platformID string) ([]domain.SequenceStep, error) {
	u := fmt.Sprintf("%s/campaigns/%s/sequences?api_key=%s", a.baseURL, url.PathEscape(platformID), url.QueryEscape(conn.EncryptedSecret))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("providera: build steps request: %w", err)
	}

	raw, err := a.client.Request(ctx, domain.ProviderA, ratelimit.KeyProviderA, req, providers.RequestOpts{Retries: 3})
	if err != nil {
		return nil, fmt.Errorf("providera: fetch steps: %w", err)
	}

	var items []sequenceStepItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("providera: decode steps: %w", err)
	}

	out := make([]domain.SequenceStep, 0, len(items))
	for _, it := range items {
		delay, _ := strconv.Atoi(it.DelayDays.String())
		body := it.Body
		preview := body
		if len(preview) > 200 {
			preview = preview[:200]
		}
		out = append(out, domain.SequenceStep{
			StepNumber:               it.StepNumber,
			Name:                     it.Name,
			Subject:                  it.Subject,
			Body:                     body,
			BodyPreview:              preview,
			DelayDays:                delay,
			PersonalizationVariables: providers.ExtractPersonalizationVariables(it.Subject, body),
		})
	}
	return out, nil
}
