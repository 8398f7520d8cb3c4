package admin

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"dialogrelay/internal/service/client"
	"dialogrelay/internal/service/session"
	"dialogrelay/pkg/utils"
)

// Handler exposes the operator surface: client and session inspection,
// session activation control and the lifecycle event stream.
type Handler struct {
	registry *client.Registry
	hub      *session.Hub
	upgrader websocket.Upgrader
}

// New creates the admin handler.
func New(registry *client.Registry, hub *session.Hub) *Handler {
	return &Handler{
		registry: registry,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the admin endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/clients", h.handleListClients)
	r.Get("/admin/clients/{clientID}/sessions", h.handleListSessions)
	r.Post("/admin/clients/{clientID}/sessions/{chatID}/activate", h.handleActivateSession)
	r.Post("/admin/clients/{clientID}/sessions/{chatID}/deactivate", h.handleDeactivateSession)
	r.Post("/admin/clients/{clientID}/sweep", h.handleSweep)
	r.Get("/admin/events", h.handleEvents)
}

type clientView struct {
	ID       string `json:"id"`
	Active   bool   `json:"active"`
	Sessions int    `json:"sessions"`
}

type sessionView struct {
	ChatID          string    `json:"chatId"`
	Status          string    `json:"status"`
	Valid           bool      `json:"valid"`
	LastInteraction time.Time `json:"lastInteraction"`
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients := h.registry.List()
	views := make([]clientView, 0, len(clients))
	for _, c := range clients {
		views = append(views, clientView{
			ID:       c.ID(),
			Active:   c.Active(),
			Sessions: len(c.Sessions().List()),
		})
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	c, ok := h.registry.Get(chi.URLParam(r, "clientID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "unknown client")
		return
	}

	sessions := c.Sessions().List()
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, sessionView{
			ChatID:          sess.ChatID(),
			Status:          string(sess.Status()),
			Valid:           sess.Valid(),
			LastInteraction: sess.LastInteraction(),
		})
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

func (h *Handler) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	h.toggleSession(w, r, func(m *session.Manager, chatID string) error {
		return m.Activate(chatID)
	})
}

func (h *Handler) handleDeactivateSession(w http.ResponseWriter, r *http.Request) {
	h.toggleSession(w, r, func(m *session.Manager, chatID string) error {
		return m.Deactivate(chatID)
	})
}

func (h *Handler) toggleSession(w http.ResponseWriter, r *http.Request, apply func(*session.Manager, string) error) {
	c, ok := h.registry.Get(chi.URLParam(r, "clientID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "unknown client")
		return
	}

	chatID := chi.URLParam(r, "chatID")
	if err := apply(c.Sessions(), chatID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "unknown session")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	c, ok := h.registry.Get(chi.URLParam(r, "clientID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "unknown client")
		return
	}
	removed := c.Sessions().Sweep()
	utils.RespondJSON(w, http.StatusOK, map[string]int{"swept": removed})
}

// handleEvents streams session lifecycle events over a websocket until the
// peer disconnects.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[admin] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// The read loop only exists to notice the peer going away.
	go func() {
		defer cancelCtx()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[admin] websocket write failed: %v", err)
				}
				return
			}
		}
	}
}
