package logger

import "testing"

func TestRedactEmail_MasksLocalPart(t *testing.T) {
	if got := RedactEmail("john.doe@example.com"); got != "jo***@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestRedactEmail_ShortLocalPartFullyMasked(t *testing.T) {
	if got := RedactEmail("ab@example.com"); got != "***@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestIsCredentialField_MatchesKnownMarkers(t *testing.T) {
	cases := []string{"encrypted_secret", "api_key", "X-ProviderA-Signature", "webhook_secret", "auth_token"}
	for _, key := range cases {
		if !isCredentialField(key) {
			t.Errorf("expected %q to be flagged as a credential field", key)
		}
	}
}

func TestIsCredentialField_LeavesOrdinaryFieldsAlone(t *testing.T) {
	for _, key := range []string{"workspace_id", "campaign_name", "event_type"} {
		if isCredentialField(key) {
			t.Errorf("did not expect %q to be flagged as a credential field", key)
		}
	}
}

func TestRedactPIIValue_RedactsCredentialFieldsRegardlessOfValueShape(t *testing.T) {
	if got := redactPIIValue("encrypted_secret", "sk-live-abc123"); got != "***" {
		t.Errorf("expected a fully redacted credential, got %q", got)
	}
}

func TestRedactPIIValue_RedactsEmbeddedEmailInGenericField(t *testing.T) {
	got := redactPIIValue("reply_text", "reach me at jane@example.com for details")
	if got == "reach me at jane@example.com for details" {
		t.Errorf("expected the embedded email to be redacted, got %q", got)
	}
}
