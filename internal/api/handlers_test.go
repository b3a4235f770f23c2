package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/outreach-sync/internal/auth"
	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/pkg/distlock"
	"github.com/ignite/outreach-sync/internal/repository/postgres"
	"github.com/ignite/outreach-sync/internal/sync"
	"github.com/ignite/outreach-sync/internal/webhook"
)

func setupTestStore(t *testing.T) (*postgres.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	return postgres.New(db), mock, func() { db.Close() }
}

func connRow(status domain.SyncStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "workspace_id", "provider", "encrypted_secret", "is_active",
		"sync_status", "last_sync_at", "last_full_sync_at", "sync_progress", "last_error",
	}).AddRow("conn1", "ws1", "provider_a", "secret", true, status, nil, nil, []byte(`{}`), nil)
}

func noLockOrchestrator(store *postgres.Store) *sync.Orchestrator {
	return sync.New(store, nil, nil, nil, func(key string) distlock.DistLock { return nil })
}

func newTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock, func()) {
	t.Helper()
	store, mock, cleanup := setupTestStore(t)
	h := NewHandlers(auth.New("service-secret"), noLockOrchestrator(store), nil, store, "providera-secret", "providerb-secret")
	return h, mock, cleanup
}

func TestEmailSync_MissingAuthReturnsUnauthorized(t *testing.T) {
	h, _, cleanup := newTestHandlers(t)
	defer cleanup()

	body, _ := json.Marshal(emailSyncRequest{WorkspaceID: "ws1"})
	req := httptest.NewRequest(http.MethodPost, "/functions/email-sync", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.EmailSync(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEmailSync_InvalidBodyReturnsBadRequest(t *testing.T) {
	h, _, cleanup := newTestHandlers(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/functions/email-sync", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	h.EmailSync(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEmailSync_MissingWorkspaceIDReturnsBadRequest(t *testing.T) {
	h, _, cleanup := newTestHandlers(t)
	defer cleanup()

	body, _ := json.Marshal(emailSyncRequest{})
	req := httptest.NewRequest(http.MethodPost, "/functions/email-sync", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.EmailSync(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEmailSync_UnknownPlatformReturnsBadRequest(t *testing.T) {
	h, _, cleanup := newTestHandlers(t)
	defer cleanup()

	body, _ := json.Marshal(emailSyncRequest{WorkspaceID: "ws1", Platform: "provider_z", InternalContinuation: true})
	req := httptest.NewRequest(http.MethodPost, "/functions/email-sync", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.EmailSync(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEmailSync_PlatformOmittedRunsBothProviders(t *testing.T) {
	h, mock, cleanup := newTestHandlers(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM api_connections`).
		WithArgs("ws1", string(domain.ProviderA)).
		WillReturnRows(connRow(domain.SyncSyncing))
	mock.ExpectQuery(`SELECT (.+) FROM api_connections`).
		WithArgs("ws1", string(domain.ProviderB)).
		WillReturnRows(connRow(domain.SyncSyncing))

	body, _ := json.Marshal(emailSyncRequest{WorkspaceID: "ws1"})
	req := httptest.NewRequest(http.MethodPost, "/functions/email-sync", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer service-secret")
	w := httptest.NewRecorder()
	h.EmailSync(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success  bool                   `json:"success"`
		Complete bool                   `json:"complete"`
		Progress map[string]sync.Result `json:"progress"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("expected success=true")
	}
	if len(resp.Progress) != 2 {
		t.Errorf("expected both providers reported, got %d", len(resp.Progress))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// --- webhook handler tests ---

type fakeCampaignResolver struct {
	campaign *domain.Campaign
}

func (f *fakeCampaignResolver) GetByPlatformID(ctx context.Context, workspaceID string, provider domain.Provider, platformID string) (*domain.Campaign, error) {
	if f.campaign == nil {
		return nil, postgres.ErrNotFound
	}
	return f.campaign, nil
}

type fakeContactStore struct{}

func (f *fakeContactStore) GetOrCreate(ctx context.Context, workspaceID, email string) (*domain.Contact, error) {
	return &domain.Contact{ID: "contact1", WorkspaceID: workspaceID, Email: email}, nil
}
func (f *fakeContactStore) MarkBounced(ctx context.Context, id string) error     { return nil }
func (f *fakeContactStore) MarkDoNotEmail(ctx context.Context, id string) error { return nil }

type fakeActivityStore struct{}

func (f *fakeActivityStore) GetOrCreate(ctx context.Context, workspaceID, campaignID, contactID string, stepNumber int) (*domain.EmailActivity, error) {
	return &domain.EmailActivity{ID: "act1", WorkspaceID: workspaceID, CampaignID: campaignID, ContactID: contactID, StepNumber: stepNumber}, nil
}
func (f *fakeActivityStore) MarkSent(ctx context.Context, id, sentAt string) error { return nil }
func (f *fakeActivityStore) MarkOpened(ctx context.Context, id, openedAt string) error {
	return nil
}
func (f *fakeActivityStore) MarkClicked(ctx context.Context, id, clickedAt string) error {
	return nil
}
func (f *fakeActivityStore) MarkReplied(ctx context.Context, id, repliedAt, replyText string, category domain.ReplyCategory, sentiment domain.ReplySentiment) error {
	return nil
}
func (f *fakeActivityStore) UpdateReplyCategory(ctx context.Context, id string, category domain.ReplyCategory, sentiment domain.ReplySentiment) error {
	return nil
}
func (f *fakeActivityStore) MarkBounced(ctx context.Context, id string, bounceType domain.BounceType, reason string) error {
	return nil
}
func (f *fakeActivityStore) MarkUnsubscribed(ctx context.Context, id string) error { return nil }

type fakeEventLog struct {
	inserted bool
}

func (f *fakeEventLog) Insert(ctx context.Context, e *domain.WebhookEvent) (bool, error) {
	return f.inserted, nil
}
func (f *fakeEventLog) MarkProcessed(ctx context.Context, provider domain.Provider, eventID, processedAt string) error {
	return nil
}

type fakeCounters struct{}

func (f *fakeCounters) IncrementCampaignMetric(ctx context.Context, campaignID, field string, delta int64) error {
	return nil
}
func (f *fakeCounters) RecordDailyMetric(ctx context.Context, campaignID, metricDate, field string, delta int64) error {
	return nil
}
func (f *fakeCounters) RecordHourlyMetric(ctx context.Context, workspaceID, campaignID, metricDate string, dayOfWeek, hourOfDay int, field string, delta int64) error {
	return nil
}
func (f *fakeCounters) UpdatePositiveReplyCounts(ctx context.Context, campaignID, metricDate string, delta int64) error {
	return nil
}

type fakeThreads struct{}

func (f *fakeThreads) Insert(ctx context.Context, t *domain.MessageThread) error { return nil }

type fakeClicks struct{}

func (f *fakeClicks) Insert(ctx context.Context, c *domain.LinkClick) error { return nil }

func newTestIntakeHandlers(t *testing.T, resolved bool, inserted bool) *Handlers {
	t.Helper()
	var resolver fakeCampaignResolver
	if resolved {
		resolver.campaign = &domain.Campaign{ID: "camp1"}
	}
	intake := &webhook.Intake{
		Campaigns: &resolver,
		Contacts:  &fakeContactStore{},
		Activity:  &fakeActivityStore{},
		Events:    &fakeEventLog{inserted: inserted},
		Counters:  &fakeCounters{},
		Threads:   &fakeThreads{},
		Clicks:    &fakeClicks{},
	}
	return NewHandlers(auth.New("service-secret"), nil, intake, nil, "providera-secret", "providerb-secret")
}

func signedWebhookRequest(secret string, payload []byte, workspaceID string) *http.Request {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	sig := hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/functions/providerA-webhook?workspace_id="+workspaceID, bytes.NewReader(payload))
	req.Header.Set("X-ProviderA-Signature", sig)
	return req
}

func TestProviderAWebhook_ValidSignatureProcessesEvent(t *testing.T) {
	h := newTestIntakeHandlers(t, true, true)
	payload := []byte(`{"event_id":"e1","event_type":"sent","campaign_id":"c1","contact_email":"a@example.com","timestamp":"2026-01-01T00:00:00Z"}`)
	req := signedWebhookRequest("providera-secret", payload, "ws1")
	w := httptest.NewRecorder()
	h.ProviderAWebhook(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "processed" {
		t.Errorf("expected status=processed, got %q", resp.Status)
	}
}

func TestProviderAWebhook_InvalidSignatureReturnsUnauthorized(t *testing.T) {
	h := newTestIntakeHandlers(t, true, true)
	payload := []byte(`{"event_id":"e1","event_type":"sent","campaign_id":"c1"}`)
	req := httptest.NewRequest(http.MethodPost, "/functions/providerA-webhook?workspace_id=ws1", bytes.NewReader(payload))
	req.Header.Set("X-ProviderA-Signature", "deadbeef")
	w := httptest.NewRecorder()
	h.ProviderAWebhook(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestProviderAWebhook_UnconfiguredSecretSkipsVerification(t *testing.T) {
	h := newTestIntakeHandlers(t, true, true)
	h.ProviderASecret = ""
	payload := []byte(`{"event_id":"e1","event_type":"sent","campaign_id":"c1"}`)
	req := httptest.NewRequest(http.MethodPost, "/functions/providerA-webhook?workspace_id=ws1", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	h.ProviderAWebhook(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when signing is unconfigured, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProviderAWebhook_MalformedBodyReturnsBadRequest(t *testing.T) {
	h := newTestIntakeHandlers(t, true, true)
	h.ProviderASecret = ""
	req := httptest.NewRequest(http.MethodPost, "/functions/providerA-webhook?workspace_id=ws1", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	h.ProviderAWebhook(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestProviderAWebhook_MissingWorkspaceIDReturnsBadRequest(t *testing.T) {
	h := newTestIntakeHandlers(t, true, true)
	h.ProviderASecret = ""
	payload := []byte(`{"event_id":"e1","event_type":"sent","campaign_id":"c1"}`)
	req := httptest.NewRequest(http.MethodPost, "/functions/providerA-webhook", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	h.ProviderAWebhook(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestProviderAWebhook_UnresolvedCampaignReportsStored(t *testing.T) {
	h := newTestIntakeHandlers(t, false, true)
	h.ProviderASecret = ""
	payload := []byte(`{"event_id":"e1","event_type":"sent","campaign_id":"unknown-campaign"}`)
	req := httptest.NewRequest(http.MethodPost, "/functions/providerA-webhook?workspace_id=ws1", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	h.ProviderAWebhook(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "stored" {
		t.Errorf("expected status=stored for an unresolved campaign, got %q", resp.Status)
	}
}

func TestProviderAWebhook_DuplicateEventReportsStored(t *testing.T) {
	h := newTestIntakeHandlers(t, true, false)
	h.ProviderASecret = ""
	payload := []byte(`{"event_id":"e1","event_type":"sent","campaign_id":"c1"}`)
	req := httptest.NewRequest(http.MethodPost, "/functions/providerA-webhook?workspace_id=ws1", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	h.ProviderAWebhook(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "stored" {
		t.Errorf("expected status=stored for a duplicate event, got %q", resp.Status)
	}
}

// --- contact search handler tests ---

func TestContactSearch_MissingAuthReturnsUnauthorized(t *testing.T) {
	h, _, cleanup := newTestHandlers(t)
	defer cleanup()

	body, _ := json.Marshal(contactSearchRequest{WorkspaceID: "ws1", Email: "a@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/functions/contact-search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ContactSearch(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestContactSearch_NotFoundReturnsFoundFalse(t *testing.T) {
	h, mock, cleanup := newTestHandlers(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM contacts`).
		WithArgs("ws1", "a@example.com").
		WillReturnError(sql.ErrNoRows)

	body, _ := json.Marshal(contactSearchRequest{WorkspaceID: "ws1", Email: "a@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/functions/contact-search", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer service-secret")
	w := httptest.NewRecorder()
	h.ContactSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Found bool `json:"found"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Found {
		t.Errorf("expected found=false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestContactSearch_FoundReturnsCampaignsAcrossProviders(t *testing.T) {
	h, mock, cleanup := newTestHandlers(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM contacts`).
		WithArgs("ws1", "a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id", "email", "company_id", "email_status", "do_not_email"}).
			AddRow("contact1", "ws1", "a@example.com", nil, "ok", false))

	mock.ExpectQuery(`SELECT (.+) FROM email_activities a`).
		WithArgs("ws1", "contact1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "workspace_id", "campaign_id", "contact_id", "step_number",
			"sent", "sent_at", "opened", "first_opened_at", "open_count",
			"clicked", "first_clicked_at", "click_count",
			"replied", "replied_at", "reply_text", "reply_category", "reply_sentiment",
			"bounced", "bounce_type", "bounce_reason", "unsubscribed",
			"provider", "name",
		}).AddRow(
			"act1", "ws1", "camp1", "contact1", 1,
			true, "2026-01-01T00:00:00Z", false, nil, 0,
			false, nil, 0,
			false, nil, nil, nil, nil,
			false, nil, nil, false,
			"provider_a", "Spring Launch",
		))

	body, _ := json.Marshal(contactSearchRequest{WorkspaceID: "ws1", Email: "a@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/functions/contact-search", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer service-secret")
	w := httptest.NewRecorder()
	h.ContactSearch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Found     bool                    `json:"found"`
		ProviderA bool                    `json:"provider_a"`
		ProviderB bool                    `json:"provider_b"`
		Campaigns []contactSearchCampaign `json:"campaigns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Found || !resp.ProviderA || resp.ProviderB {
		t.Errorf("got %+v", resp)
	}
	if len(resp.Campaigns) != 1 || resp.Campaigns[0].CampaignName != "Spring Launch" {
		t.Errorf("got %+v", resp.Campaigns)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
