package providera

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/providers"
	"github.com/ignite/outreach-sync/internal/ratelimit"
)

func newTestAdapter(t *testing.T, baseURL string) *Adapter {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })
	client := providers.New(&http.Client{Timeout: 5 * time.Second}, ratelimit.New(redisClient))
	return New(baseURL, client)
}

func TestListCampaigns_NormalizesStatusToLowercase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "secret-123" {
			t.Errorf("expected api_key query param to carry the connection secret")
		}
		w.Write([]byte(`[{"id":"c1","name":"Spring Launch","status":"ACTIVE","created_at":"2026-01-01"}]`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	out, err := a.ListCampaigns(context.Background(), &domain.ApiConnection{EncryptedSecret: "secret-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Status != domain.CampaignStatus("active") {
		t.Errorf("got %+v", out)
	}
}

func TestFetchCampaignStats_UsesFirstNonNilFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// sent_count absent, falls back to unique_sent_count.
		w.Write([]byte(`{"unique_sent_count":42,"unique_open_count":10,"click_count":3,"reply_count":1,"bounce_count":0}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	lc, err := a.FetchCampaignStats(context.Background(), &domain.ApiConnection{EncryptedSecret: "s"}, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lc.Sent != 42 || lc.Opened != 10 || lc.Clicked != 3 || lc.Replied != 1 {
		t.Errorf("got %+v", lc)
	}
}

func TestFetchCampaignStats_404ReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.FetchCampaignStats(context.Background(), &domain.ApiConnection{EncryptedSecret: "s"}, "missing")
	if !errors.Is(err, providers.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchSteps_404ReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.FetchSteps(context.Background(), &domain.ApiConnection{EncryptedSecret: "s"}, "missing")
	if !errors.Is(err, providers.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchSteps_TruncatesBodyPreviewAt200Chars(t *testing.T) {
	longBody := ""
	for i := 0; i < 250; i++ {
		longBody += "x"
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"step_number":1,"name":"Step 1","subject":"Hi {{first_name}}","body":"` + longBody + `","delay_days":2}]`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	steps, err := a.FetchSteps(context.Background(), &domain.ApiConnection{EncryptedSecret: "s"}, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected one step, got %d", len(steps))
	}
	if len(steps[0].BodyPreview) != 200 {
		t.Errorf("expected a 200-char preview, got %d", len(steps[0].BodyPreview))
	}
	if steps[0].DelayDays != 2 {
		t.Errorf("expected delay_days=2, got %d", steps[0].DelayDays)
	}
}
