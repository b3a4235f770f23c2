package webhook

import (
	"strings"
	"testing"

	"github.com/ignite/outreach-sync/internal/domain"
)

func TestParseAndValidate_Valid(t *testing.T) {
	body := []byte(`{
		"event_id": "evt_1",
		"event_type": "opened",
		"campaign_id": "camp_1",
		"contact_email": "lead@example.com",
		"step_number": 2,
		"timestamp": "2026-01-01T00:00:00Z",
		"link_url": "https://example.com/track"
	}`)

	ev, err := ParseAndValidate(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.EventID != "evt_1" {
		t.Errorf("event id = %q", ev.EventID)
	}
	if ev.EventType != domain.EventOpened {
		t.Errorf("event type = %q", ev.EventType)
	}
	if ev.ContactEmail != "lead@example.com" {
		t.Errorf("contact email = %q", ev.ContactEmail)
	}
	if ev.LinkURL != "https://example.com/track" {
		t.Errorf("link url = %q", ev.LinkURL)
	}
}

func TestParseAndValidate_NormalizesNativeProviderAEventType(t *testing.T) {
	body := []byte(`{
		"event_id": "evt-777",
		"event_type": "EMAIL_OPEN",
		"campaign_id": "camp_1",
		"contact_email": "a@example.com"
	}`)

	ev, err := ParseAndValidate(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.EventType != domain.EventOpened {
		t.Errorf("event type = %q, want %q", ev.EventType, domain.EventOpened)
	}
}

func TestParseAndValidate_NormalizesNativeEventTypeCaseInsensitively(t *testing.T) {
	body := []byte(`{"event_id": "e2", "event_type": "email_click"}`)

	ev, err := ParseAndValidate(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.EventType != domain.EventClicked {
		t.Errorf("event type = %q, want %q", ev.EventType, domain.EventClicked)
	}
}

func TestParseAndValidate_UnknownEventTypePassesThroughLowercased(t *testing.T) {
	body := []byte(`{"event_id": "e3", "event_type": "SOME_FUTURE_EVENT"}`)

	ev, err := ParseAndValidate(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.EventType != domain.WebhookEventType("some_future_event") {
		t.Errorf("event type = %q", ev.EventType)
	}
}

func TestParseAndValidate_MissingEventType(t *testing.T) {
	_, err := ParseAndValidate([]byte(`{"event_id": "evt_1"}`))
	if err == nil {
		t.Fatal("expected error for missing event_type")
	}
}

func TestParseAndValidate_MissingEventID(t *testing.T) {
	_, err := ParseAndValidate([]byte(`{"event_type": "sent"}`))
	if err == nil {
		t.Fatal("expected error for missing event_id")
	}
}

func TestParseAndValidate_InvalidEmail(t *testing.T) {
	body := []byte(`{"event_id": "e1", "event_type": "sent", "contact_email": "not-an-email"}`)
	_, err := ParseAndValidate(body)
	if err == nil {
		t.Fatal("expected error for invalid contact_email")
	}
}

func TestParseAndValidate_MalformedJSON(t *testing.T) {
	_, err := ParseAndValidate([]byte(`not json`))
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestParseAndValidate_DropsNonHTTPLink(t *testing.T) {
	body := []byte(`{"event_id": "e1", "event_type": "clicked", "link_url": "javascript:alert(1)"}`)
	ev, err := ParseAndValidate(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.LinkURL != "" {
		t.Errorf("expected non-http link to be dropped, got %q", ev.LinkURL)
	}
}

func TestSanitizeString_StripsControlChars(t *testing.T) {
	in := "hello\x00world\x07!"
	out := SanitizeString(in)
	if strings.ContainsAny(out, "\x00\x07") {
		t.Errorf("expected control chars stripped, got %q", out)
	}
}

func TestSanitizeString_KeepsNewlineAndTab(t *testing.T) {
	in := "line1\nline2\ttabbed"
	out := SanitizeString(in)
	if out != in {
		t.Errorf("expected newline/tab preserved, got %q", out)
	}
}

func TestSanitizeString_CapsLength(t *testing.T) {
	in := strings.Repeat("a", maxStringLength+500)
	out := SanitizeString(in)
	if len(out) != maxStringLength {
		t.Errorf("expected length capped to %d, got %d", maxStringLength, len(out))
	}
}

func TestSanitizeURL_AcceptsHTTPS(t *testing.T) {
	if got := SanitizeURL("https://example.com/x"); got != "https://example.com/x" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeURL_RejectsNonAbsolute(t *testing.T) {
	if got := SanitizeURL("/relative/path"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitizeURL_RejectsNonHTTPScheme(t *testing.T) {
	if got := SanitizeURL("ftp://example.com/file"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
