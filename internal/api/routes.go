package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/outreach-sync/internal/pkg/httputil"
)

// SetupRoutes configures the three ingress endpoints of §6 plus the
// operational health surface.
func SetupRoutes(h *Handlers, hc *HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-ProviderA-Signature", "X-ProviderB-Signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)

	r.Route("/functions", func(r chi.Router) {
		r.Post("/email-sync", h.EmailSync)
		r.Post("/providerA-webhook", h.ProviderAWebhook)
		r.Post("/providerB-webhook", h.ProviderBWebhook)
		r.Post("/contact-search", h.ContactSearch)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httputil.JSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	return r
}
