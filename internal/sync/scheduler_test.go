package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignite/outreach-sync/internal/domain"
)

func TestHTTPScheduler_PostsSignedContinuationRequest(t *testing.T) {
	done := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done <- r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPScheduler(&http.Client{Timeout: 2 * time.Second}, srv.URL, "service-secret")
	if err := s.ScheduleContinuation(context.Background(), "ws1", domain.ProviderA, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case r := <-done:
		if r.Header.Get("Authorization") != "Bearer service-secret" {
			t.Errorf("expected bearer auth header, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/functions/email-sync" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the self-continuation POST")
	}
}

func TestHTTPScheduler_RetriesTransientServerErrors(t *testing.T) {
	var calls int
	done := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		done <- struct{}{}
	}))
	defer srv.Close()

	s := NewHTTPScheduler(&http.Client{Timeout: 2 * time.Second}, srv.URL, "service-secret")
	if err := s.ScheduleContinuation(context.Background(), "ws1", domain.ProviderA, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-done:
		if calls < 2 {
			t.Errorf("expected the retry client to retry past the initial 503, got %d calls", calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the retried self-continuation POST")
	}
}
