// Package logger provides the structured JSON logging used throughout the
// ingestion backplane, with redaction tuned for this domain: contact
// emails and the per-connection provider credentials (api keys, webhook
// signing secrets) must never reach a log line in the clear.
package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// credentialFieldMarkers flags log fields carrying a provider credential
// or webhook signing secret — never printed, only their presence noted.
var credentialFieldMarkers = []string{"secret", "api_key", "apikey", "signature", "token"}

// isCredentialField reports whether key looks like it holds a connection's
// encrypted_secret, a webhook signature, or similar provider credential.
func isCredentialField(key string) bool {
	key = strings.ToLower(key)
	for _, marker := range credentialFieldMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
