// Package providerb adapts Provider B's REST API to the providers.Adapter
// interface: an x-api-key header, dual API versions (plain + /v1), ordered
// synonym field-name fallbacks for stats, and multi-location step
// extraction.
package providerb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/providers"
	"github.com/ignite/outreach-sync/internal/ratelimit"
)

// Adapter implements providers.Adapter for Provider B.
type Adapter struct {
	baseURL string
	client  *providers.Client
}

// New builds a Provider B Adapter.
func New(baseURL string, client *providers.Client) *Adapter {
	return &Adapter{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (a *Adapter) authedRequest(ctx context.Context, method, u string, apiKey string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)
	return req, nil
}

type sequenceListItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type sequenceListPage struct {
	Items []sequenceListItem `json:"items"`
}

const listPageSize = 100

// ListCampaigns calls GET /sequences?top=100&skip=N, paginating until a
// short page signals the end.
func (a *Adapter) ListCampaigns(ctx context.Context, conn *domain.ApiConnection) ([]domain.CampaignSummary, error) {
	var out []domain.CampaignSummary
	skip := 0
	for {
		u := fmt.Sprintf("%s/sequences?top=%d&skip=%d", a.baseURL, listPageSize, skip)
		req, err := a.authedRequest(ctx, http.MethodGet, u, conn.EncryptedSecret)
		if err != nil {
			return nil, fmt.Errorf("providerb: build list request: %w", err)
		}

		raw, err := a.client.Request(ctx, domain.ProviderB, ratelimit.KeyProviderBList, req, providers.RequestOpts{Retries: 3})
		if err != nil {
			return nil, fmt.Errorf("providerb: list sequences: %w", err)
		}

		items, err := decodeListPage(raw)
		if err != nil {
			return nil, fmt.Errorf("providerb: decode sequence page: %w", err)
		}

		for _, it := range items {
			out = append(out, domain.CampaignSummary{
				PlatformID: it.ID,
				Name:       it.Name,
				Status:     mapStatus(it.Status),
				CreatedAt:  it.CreatedAt,
			})
		}

		if len(items) < listPageSize {
			break
		}
		skip += listPageSize
	}
	return out, nil
}

func decodeListPage(raw json.RawMessage) ([]sequenceListItem, error) {
	var items []sequenceListItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var page sequenceListPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

var statusMap = map[string]domain.CampaignStatus{
	"active":   domain.CampaignActive,
	"paused":   domain.CampaignPaused,
	"stopped":  domain.CampaignStopped,
	"draft":    domain.CampaignDraft,
	"archived": domain.CampaignArchived,
	"new":      domain.CampaignDraft,
}

func mapStatus(raw string) domain.CampaignStatus {
	if s, ok := statusMap[strings.ToLower(raw)]; ok {
		return s
	}
	return domain.CampaignStatus(strings.ToLower(raw))
}

// sentFieldSynonyms is the ordered field-name priority list. The
// canonical field is deliveriesCount; everything after it is strictly
// fallback for sequences whose v1 stats response omits it.
var sentFieldSynonyms = []string{
	"deliveriesCount", "peopleContacted", "contactedPeople",
	"sentCount", "peopleInSequence", "contactCount",
}

var openedFieldSynonyms = []string{"opensCount", "uniqueOpensCount", "peopleOpened", "openedCount"}
var clickedFieldSynonyms = []string{"clicksCount", "uniqueClicksCount", "peopleClicked", "clickedCount"}
var repliedFieldSynonyms = []string{"repliesCount", "peopleReplied", "replyCount", "repliedCount"}
var bouncedFieldSynonyms = []string{"bouncesCount", "peopleBounced", "bounceCount", "bouncedCount"}
var interestedFieldSynonyms = []string{"interestedCount", "peopleInterested", "positiveRepliesCount"}

// FetchCampaignStats calls GET /v1/campaigns?id={id} (note the v1 path)
// and probes each counter's synonym list in priority order.
func (a *Adapter) FetchCampaignStats(ctx context.Context, conn *domain.ApiConnection, platformID string) (domain.LifetimeCounters, error) {
	u := fmt.Sprintf("%s/v1/campaigns?id=%s", a.baseURL, platformID)
	req, err := a.authedRequest(ctx, http.MethodGet, u, conn.EncryptedSecret)
	if err != nil {
		return domain.LifetimeCounters{}, fmt.Errorf("providerb: build stats request: %w", err)
	}

	raw, err := a.client.Request(ctx, domain.ProviderB, ratelimit.KeyProviderBStats, req, providers.RequestOpts{Retries: 3, Allow404: true})
	if err != nil {
		return domain.LifetimeCounters{}, fmt.Errorf("providerb: fetch stats: %w", err)
	}
	if raw == nil {
		return domain.LifetimeCounters{}, nil
	}

	obj, err := decodeStatsObject(raw)
	if err != nil {
		return domain.LifetimeCounters{}, fmt.Errorf("providerb: decode stats: %w", err)
	}

	sent, _ := providers.FirstNonNilNumber(obj, sentFieldSynonyms...)
	opened, _ := providers.FirstNonNilNumber(obj, openedFieldSynonyms...)
	clicked, _ := providers.FirstNonNilNumber(obj, clickedFieldSynonyms...)
	replied, _ := providers.FirstNonNilNumber(obj, repliedFieldSynonyms...)
	bounced, _ := providers.FirstNonNilNumber(obj, bouncedFieldSynonyms...)
	interested, _ := providers.FirstNonNilNumber(obj, interestedFieldSynonyms...)

	return domain.LifetimeCounters{
		Sent:            sent,
		Opened:          opened,
		Clicked:         clicked,
		Replied:         replied,
		Bounced:         bounced,
		PositiveReplies: interested,
	}, nil
}

// decodeStatsObject unwraps a top-level array (one-element list keyed by
// id) or a bare object, whichever the v1 endpoint returned for this id.
func decodeStatsObject(raw json.RawMessage) (map[string]interface{}, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj, nil
	}
	var arr []map[string]interface{}
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return map[string]interface{}{}, nil
	}
	return arr[0], nil
}

var allowedStepTypes = map[string]bool{
	"":             true,
	"email":        true,
	"e-mail":       true,
	"manual_email": true,
}

// FetchSteps calls GET /sequences/{id}/steps and extracts steps from
// whichever of the known response shapes the provider used.
func (a *Adapter) FetchSteps(ctx context.Context, conn *domain.ApiConnection, platformID string) ([]domain.SequenceStep, error) {
	u := fmt.Sprintf("%s/sequences/%s/steps", a.baseURL, platformID)
	req, err := a.authedRequest(ctx, http.MethodGet, u, conn.EncryptedSecret)
	if err != nil {
		return nil, fmt.Errorf("providerb: build steps request: %w", err)
	}

	raw, err := a.client.Request(ctx, domain.ProviderB, ratelimit.KeyProviderBList, req, providers.RequestOpts{Retries: 3, Allow404: true})
	if err != nil {
		return nil, fmt.Errorf("providerb: fetch steps: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	rawSteps, err := extractStepLocations(raw)
	if err != nil {
		return nil, fmt.Errorf("providerb: extract steps: %w", err)
	}

	out := make([]domain.SequenceStep, 0, len(rawSteps))
	for i, s := range rawSteps {
		if t, ok := s["type"].(string); ok && !allowedStepTypes[strings.ToLower(t)] {
			continue
		}
		subject, body := extractTemplate(s)
		preview := body
		if len(preview) > 200 {
			preview = preview[:200]
		}
		delay, _ := providers.FirstNonNilNumber(s, "delayDays", "delay_days", "waitDays")
		out = append(out, domain.SequenceStep{
			StepNumber:               i + 1,
			Name:                     stringField(s, "name", "title"),
			Subject:                  subject,
			Body:                     body,
			BodyPreview:              preview,
			DelayDays:                int(delay),
			PersonalizationVariables: providers.ExtractPersonalizationVariables(subject, body),
		})
	}
	return out, nil
}

// extractStepLocations looks for a step array under each of the known
// shapes in order: top-level array, .steps, .emails, .items,
// .sequence.emails.
func extractStepLocations(raw json.RawMessage) ([]map[string]interface{}, error) {
	var arr []map[string]interface{}
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}

	for _, key := range []string{"steps", "emails", "items"} {
		if v, ok := obj[key]; ok {
			if items, ok := asObjectSlice(v); ok {
				return items, nil
			}
		}
	}
	if seq, ok := obj["sequence"].(map[string]interface{}); ok {
		if v, ok := seq["emails"]; ok {
			if items, ok := asObjectSlice(v); ok {
				return items, nil
			}
		}
	}
	return nil, nil
}

func asObjectSlice(v interface{}) ([]map[string]interface{}, bool) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

// extractTemplate finds subject/body, preferring a nested .templates or
// .emails entry, falling back to the step object itself.
func extractTemplate(step map[string]interface{}) (subject, body string) {
	for _, key := range []string{"templates", "emails"} {
		if v, ok := step[key]; ok {
			if items, ok := asObjectSlice(v); ok && len(items) > 0 {
				return stringField(items[0], "subject"), stringField(items[0], "body", "html", "text")
			}
		}
	}
	return stringField(step, "subject"), stringField(step, "body", "html", "text")
}

func stringField(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
