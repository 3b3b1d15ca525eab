// Package http provides the webhook HTTP surface: handlers, routes and
// request middleware.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	relayotel "github.com/Strob0t/GitRelay/internal/adapter/otel"
	"github.com/Strob0t/GitRelay/internal/adapter/ristretto"
	"github.com/Strob0t/GitRelay/internal/config"
	"github.com/Strob0t/GitRelay/internal/domain"
	"github.com/Strob0t/GitRelay/internal/domain/event"
	"github.com/Strob0t/GitRelay/internal/service"
)

// Version is reported on the liveness endpoint and the startup log.
const Version = "1.0.0"

// EventHeader names the GitHub event kind for a delivery.
const EventHeader = "X-GitHub-Event"

// DeliveryHeader carries GitHub's unique id for a delivery; redeliveries
// reuse it, which is what the dedup cache keys on.
const DeliveryHeader = "X-GitHub-Delivery"

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Config     *config.Config
	Router     *service.Router
	Dispatcher *service.Dispatcher
	Dedup      *ristretto.DedupCache // nil disables deduplication
	Metrics    *relayotel.Metrics    // nil disables instrument updates
}

// HandleWebhook handles POST /. The response reflects authentication and
// parsing only: suppressed events, empty destination sets and downstream
// delivery failures all answer 200, because GitHub re-delivers on non-2xx
// and the payload has already been durably routed by then.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	deliveryID := r.Header.Get(DeliveryHeader)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	eventType := r.Header.Get(EventHeader)

	ctx, span := relayotel.StartDeliverySpan(r.Context(), deliveryID, eventType)
	defer span.End()

	ev, err := service.Normalize(eventType, body)
	if err != nil {
		h.countRejected(r)
		if errors.Is(err, domain.ErrMalformedPayload) {
			slog.Error("malformed delivery", "delivery_id", deliveryID, "event", eventType, "error", err)
			writeError(w, http.StatusBadRequest, "malformed payload")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.Metrics != nil {
		h.Metrics.DeliveriesReceived.Add(ctx, 1)
	}

	// Ping acknowledges hook setup; nothing to route.
	if ev.Kind == event.KindPing {
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Version: Version, Zen: ev.Zen})
		return
	}

	// Dedup only after successful parsing so a rejected delivery can be
	// corrected and redelivered under the same id.
	if h.Dedup != nil && h.Dedup.Seen(deliveryID) {
		slog.Info("duplicate delivery ignored", "delivery_id", deliveryID, "event", eventType)
		writeJSON(w, http.StatusOK, statusResponse{Status: "duplicate", Version: Version})
		return
	}

	decision := h.Router.Route(ev)
	if len(decision.Chats) == 0 {
		if h.Metrics != nil {
			h.Metrics.DeliveriesSuppressed.Add(ctx, 1)
		}
		slog.Info("delivery suppressed",
			"delivery_id", deliveryID,
			"event", eventType,
			"repository", ev.Repository,
			"branch", ev.Branch,
		)
		writeJSON(w, http.StatusOK, statusResponse{Status: "skipped", Version: Version})
		return
	}

	slog.Info("delivery routed",
		"delivery_id", deliveryID,
		"event", eventType,
		"repository", ev.Repository,
		"branch", ev.Branch,
		"chats", len(decision.Chats),
	)

	if h.Config.Dispatch.Async {
		h.Dispatcher.Enqueue(decision)
	} else {
		h.Dispatcher.Dispatch(ctx, decision)
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Version: Version})
}

// HandleRoot handles GET /, a minimal liveness probe.
func (h *Handlers) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Version: Version})
}

// HandleHealth handles GET /healthz with a configuration summary.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"version":       Version,
		"auth":          h.Config.AuthConfigured(),
		"default_chats": len(h.Config.Telegram.SendTo),
		"repositories":  len(h.Config.Repositories),
	})
}

func (h *Handlers) countRejected(r *http.Request) {
	if h.Metrics != nil {
		h.Metrics.DeliveriesRejected.Add(r.Context(), 1)
	}
}
