package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/GitRelay/internal/config"
	"github.com/Strob0t/GitRelay/internal/middleware"
)

// MountRoutes registers the relay routes on the given chi router.
// Authentication wraps only the webhook POST; the probes stay open.
func MountRoutes(r chi.Router, h *Handlers, server config.Server) {
	r.With(middleware.WebhookAuth(server)).Post("/", h.HandleWebhook)
	r.Get("/", h.HandleRoot)
	r.Get("/healthz", h.HandleHealth)
}
