package api

import (
	"io"
	"net/http"
	"time"

	"github.com/ignite/outreach-sync/internal/auth"
	"github.com/ignite/outreach-sync/internal/domain"
	"github.com/ignite/outreach-sync/internal/pkg/httputil"
	"github.com/ignite/outreach-sync/internal/pkg/logger"
	"github.com/ignite/outreach-sync/internal/repository/postgres"
	"github.com/ignite/outreach-sync/internal/sync"
	"github.com/ignite/outreach-sync/internal/webhook"
)

// Handlers groups the three ingress endpoints (§6) behind the components
// they drive: the Sync Orchestrator, Webhook Intake, and the Persistence
// Gateway's read path for contact-search.
type Handlers struct {
	Auth            *auth.Authenticator
	Orchestrator    *sync.Orchestrator
	Intake          *webhook.Intake
	Store           *postgres.Store
	ProviderASecret string
	ProviderBSecret string
}

// NewHandlers wires a Handlers against its dependencies.
func NewHandlers(authenticator *auth.Authenticator, orchestrator *sync.Orchestrator, intake *webhook.Intake, store *postgres.Store, providerASecret, providerBSecret string) *Handlers {
	return &Handlers{
		Auth:            authenticator,
		Orchestrator:    orchestrator,
		Intake:          intake,
		Store:           store,
		ProviderASecret: providerASecret,
		ProviderBSecret: providerBSecret,
	}
}

// emailSyncRequest mirrors the run_sync request body.
type emailSyncRequest struct {
	WorkspaceID          string `json:"workspace_id"`
	Platform             string `json:"platform,omitempty"`
	Reset                bool   `json:"reset,omitempty"`
	ContinueAt           *int   `json:"continue_at,omitempty"`
	InternalContinuation bool   `json:"internal_continuation,omitempty"`
	BatchNumber          int    `json:"batch_number,omitempty"`
}

// EmailSync handles `POST /functions/email-sync`.
func (h *Handlers) EmailSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req emailSyncRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request body"})
		return
	}
	if req.WorkspaceID == "" {
		httputil.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "workspace_id is required"})
		return
	}
	if err := h.Auth.Check(r, req.InternalContinuation); err != nil {
		httputil.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "unauthorized"})
		return
	}

	providersToRun := []domain.Provider{domain.ProviderA, domain.ProviderB}
	if req.Platform != "" {
		p := domain.Provider(req.Platform)
		if !p.Valid() {
			httputil.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "unknown platform"})
			return
		}
		providersToRun = []domain.Provider{p}
	}

	opts := sync.Options{
		Reset:       req.Reset,
		ContinueAt:  req.ContinueAt,
		Internal:    req.InternalContinuation,
		BatchNumber: req.BatchNumber,
	}

	progress := make(map[string]sync.Result, len(providersToRun))
	complete := true
	for _, p := range providersToRun {
		res, err := h.Orchestrator.RunSync(r.Context(), req.WorkspaceID, p, opts)
		if err != nil {
			logger.Error("api.email_sync_failed", "workspace_id", req.WorkspaceID, "provider", string(p), "error", err.Error())
			httputil.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": err.Error()})
			return
		}
		progress[string(p)] = *res
		if !res.Complete {
			complete = false
		}
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"complete":    complete,
		"progress":    progress,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// ProviderAWebhook handles `POST /functions/providerA-webhook`.
func (h *Handlers) ProviderAWebhook(w http.ResponseWriter, r *http.Request) {
	h.handleWebhook(w, r, domain.ProviderA, h.ProviderASecret, "X-ProviderA-Signature", webhook.EncodingHex)
}

// ProviderBWebhook handles `POST /functions/providerB-webhook`.
func (h *Handlers) ProviderBWebhook(w http.ResponseWriter, r *http.Request) {
	h.handleWebhook(w, r, domain.ProviderB, h.ProviderBSecret, "X-ProviderB-Signature", webhook.EncodingHex)
}

func (h *Handlers) handleWebhook(w http.ResponseWriter, r *http.Request, provider domain.Provider, secret, sigHeader string, enc webhook.Encoding) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": "cannot read request body"})
		return
	}
	defer r.Body.Close()

	if secret == "" {
		logger.Warn("api.webhook_signature_unconfigured", "provider", string(provider))
	} else {
		ok, err := webhook.VerifySignature(secret, body, r.Header.Get(sigHeader), enc)
		if err != nil || !ok {
			httputil.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
			return
		}
	}

	ev, err := webhook.ParseAndValidate(body)
	if err != nil {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	workspaceID := r.URL.Query().Get("workspace_id")
	if workspaceID == "" {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": "workspace_id query parameter is required"})
		return
	}

	processed, err := h.Intake.Apply(r.Context(), workspaceID, provider, ev, body)
	if err != nil {
		logger.Error("api.webhook_apply_failed", "provider", string(provider), "event_id", ev.EventID, "error", err.Error())
		respondSafeError(w, http.StatusInternalServerError, err, "failed to process event")
		return
	}

	status := "stored"
	if processed {
		status = "processed"
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"status": status})
}

// contactSearchRequest mirrors the contact-search request body.
type contactSearchRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Email       string `json:"email"`
}

// messageSnippet is one reply excerpt surfaced to the caller.
type messageSnippet struct {
	Body       string `json:"body"`
	ReceivedAt string `json:"received_at"`
}

// contactSearchCampaign is one campaign's engagement for the contact.
type contactSearchCampaign struct {
	Provider     domain.Provider  `json:"provider"`
	CampaignName string           `json:"campaign_name"`
	StepNumber   int              `json:"step_number"`
	Sent         bool             `json:"sent"`
	Opened       bool             `json:"opened"`
	Clicked      bool             `json:"clicked"`
	Replied      bool             `json:"replied"`
	Messages     []messageSnippet `json:"messages,omitempty"`
}

const contactSearchMessageLimit = 5

// ContactSearch handles `POST /functions/contact-search`. It reports the
// contact's presence across both providers from the normalized store
// (Persistence Gateway), rather than querying provider APIs live — the
// Adapter interface (§4.2) has no contact-lookup operation, and everything
// it would return is already ingested and deduplicated here.
func (h *Handlers) ContactSearch(w http.ResponseWriter, r *http.Request) {
	var req contactSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.WorkspaceID == "" || req.Email == "" {
		httputil.JSON(w, http.StatusBadRequest, map[string]string{"error": "workspace_id and email are required"})
		return
	}
	if err := h.Auth.Check(r, false); err != nil {
		httputil.JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	contact, err := h.Store.Contacts.Get(r.Context(), req.WorkspaceID, req.Email)
	if err == postgres.ErrNotFound {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"found":          false,
			"provider_a":     false,
			"provider_b":     false,
			"campaigns":      []contactSearchCampaign{},
		})
		return
	}
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "failed to look up contact")
		return
	}

	activities, err := h.Store.Activities.ListByContact(r.Context(), req.WorkspaceID, contact.ID)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "failed to look up contact activity")
		return
	}

	var hasA, hasB bool
	campaigns := make([]contactSearchCampaign, 0, len(activities))
	for _, a := range activities {
		if a.Provider == domain.ProviderA {
			hasA = true
		}
		if a.Provider == domain.ProviderB {
			hasB = true
		}

		var snippets []messageSnippet
		if a.Replied {
			threads, err := h.Store.MessageThreads.ListByActivity(r.Context(), a.ID, contactSearchMessageLimit)
			if err != nil {
				logger.Warn("api.contact_search_threads_failed", "activity_id", a.ID, "error", err.Error())
			}
			for _, t := range threads {
				snippets = append(snippets, messageSnippet{Body: t.Body, ReceivedAt: t.ReceivedAt})
			}
		}

		campaigns = append(campaigns, contactSearchCampaign{
			Provider:     a.Provider,
			CampaignName: a.CampaignName,
			StepNumber:   a.StepNumber,
			Sent:         a.Sent,
			Opened:       a.Opened,
			Clicked:      a.Clicked,
			Replied:      a.Replied,
			Messages:     snippets,
		})
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"found":      true,
		"provider_a": hasA,
		"provider_b": hasB,
		"campaigns":  campaigns,
	})
}
