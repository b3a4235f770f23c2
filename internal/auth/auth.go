// Package auth implements the lightweight bearer-token check the ingestion
// endpoints require: a single service credential shared with the
// self-continuation caller, bypassed only when a request identifies itself
// as an internal continuation.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned when no valid bearer token is present.
var ErrUnauthorized = errors.New("auth: missing or invalid bearer token")

// Authenticator checks inbound requests against a single service
// credential. There is no per-tenant user auth in this backplane — the
// caller (UI backend, or the orchestrator's own self-continuation) is
// trusted once it presents the shared secret.
type Authenticator struct {
	serviceKey string
}

// New builds an Authenticator against the configured service key.
func New(serviceKey string) *Authenticator {
	return &Authenticator{serviceKey: serviceKey}
}

// Check validates the Authorization header against the service key, unless
// internal is true — "Requires a bearer token unless
// internal_continuation=true". The self-continuation caller still presents
// the service credential as a bearer token (see scheduler.go), but the
// receiving side trusts the internal flag rather than re-checking it, since
// the request never left process-controlled infrastructure.
func (a *Authenticator) Check(r *http.Request, internal bool) error {
	if internal {
		return nil
	}
	token := bearerToken(r)
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.serviceKey)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}
