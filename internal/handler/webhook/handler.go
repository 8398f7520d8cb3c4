package webhook

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dialogrelay/internal/middleware"
	"dialogrelay/internal/model/dialog"
	"dialogrelay/internal/platform"
	"dialogrelay/internal/service/client"
	"dialogrelay/internal/service/engine"
	"dialogrelay/internal/service/session"
	"dialogrelay/pkg/utils"
)

// maxBodySize bounds inbound webhook payloads.
const maxBodySize = 1 << 20

// Handler routes inbound platform webhooks into the orchestration core.
type Handler struct {
	registry  *client.Registry
	platforms map[string]platform.Platform // keyed by client ID
}

// New creates the webhook handler. platforms maps each registered client to
// its platform adapter.
func New(registry *client.Registry, platforms map[string]platform.Platform) *Handler {
	return &Handler{registry: registry, platforms: platforms}
}

// RegisterRoutes mounts POST /webhook/{platform}/{clientID}, token-checked
// per client.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/webhook/{platform}/{clientID}", func(r chi.Router) {
		r.Use(middleware.BotAuth(h.registry))
		r.Post("/", h.handleUpdate)
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	platformName := chi.URLParam(r, "platform")
	clientID := chi.URLParam(r, "clientID")

	c, ok := h.registry.Get(clientID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "unknown client")
		return
	}
	p, ok := h.platforms[clientID]
	if !ok || p.Name() != platformName {
		utils.RespondError(w, http.StatusNotFound, "client is not bound to this platform")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	upd, err := p.ParseUpdate(body)
	if err != nil {
		if errors.Is(err, platform.ErrIgnoredUpdate) {
			// Delivery receipts and the like: acknowledge so the platform
			// stops redelivering.
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := c.HandleUpdate(r.Context(), upd, p.Sender())
	if err != nil {
		log.Printf("[webhook] client=%s chat=%s: %v", clientID, upd.ChatID, err)
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, plan)
}

// statusFor maps the core error taxonomy onto HTTP statuses. The platform
// only needs to know whether redelivery could help; it never retries 4xx.
func statusFor(err error) int {
	switch {
	case errors.Is(err, client.ErrMalformedUpdate):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionInactive),
		errors.Is(err, client.ErrSessionInvalidated):
		return http.StatusConflict
	case errors.Is(err, session.ErrCapacityExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, client.ErrClientInactive):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrEngine):
		return http.StatusBadGateway
	default:
		var buildErr *dialog.BuildError
		if errors.As(err, &buildErr) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}
