package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/pkg/httpretry"
)

// selfContinuationBody is the payload the orchestrator posts back to its
// own /functions/email-sync endpoint when a batch stops on its time
// budget.
type selfContinuationBody struct {
	WorkspaceID          string          `json:"workspace_id"`
	Platform             domain.Provider `json:"platform"`
	BatchNumber          int             `json:"batch_number"`
	InternalContinuation bool            `json:"internal_continuation"`
}

// HTTPScheduler implements ContinuationScheduler by firing an HTTP POST at
// the service's own email-sync endpoint, authenticated with the service
// credential, fire-and-forget (the POST runs in its own goroutine and the
// caller does not wait for it to be sent or answered). The POST goes through
// httpretry.RetryClient: self-continuation has no provider-specific rate
// limit to respect, just an ordinary transient-failure retry, so the
// generic jittered schedule fits here where it didn't fit providers.Client.
type HTTPScheduler struct {
	client     httpretry.HTTPDoer
	baseURL    string
	serviceKey string
}

// NewHTTPScheduler builds a scheduler posting against baseURL (this
// service's own externally-reachable address) with the shared service
// credential.
func NewHTTPScheduler(client *http.Client, baseURL, serviceKey string) *HTTPScheduler {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPScheduler{client: httpretry.NewRetryClient(client, 3), baseURL: baseURL, serviceKey: serviceKey}
}

// ScheduleContinuation fires the self-continuation call in a new goroutine
// so the outer request (the batch that just hit its deadline) can return
// immediately: the outer request completes first.
func (s *HTTPScheduler) ScheduleContinuation(ctx context.Context, workspaceID string, provider domain.Provider, batchNumber int) error {
	body, err := json.Marshal(selfContinuationBody{
		WorkspaceID:          workspaceID,
		Platform:             provider,
		BatchNumber:          batchNumber,
		InternalContinuation: true,
	})
	if err != nil {
		return fmt.Errorf("sync: encode continuation body: %w", err)
	}

	go func() {
		req, err := http.NewRequest(http.MethodPost, s.baseURL+"/functions/email-sync", bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.serviceKey)
		resp, err := s.client.Do(req)
		if err != nil {
			return
		}
		resp.Body.Close()
	}()

	return nil
}
