package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dialogrelay/internal/handler/admin"
	"dialogrelay/internal/handler/webhook"
	"dialogrelay/internal/platform"
	"dialogrelay/internal/service/client"
	"dialogrelay/internal/service/session"
	"dialogrelay/pkg/utils"
)

// NewRouter wires HTTP routes to the core services.
func NewRouter(registry *client.Registry, platforms map[string]platform.Platform, hub *session.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	webhookHandler := webhook.New(registry, platforms)
	adminHandler := admin.New(registry, hub)

	r.Route("/api", func(api chi.Router) {
		webhookHandler.RegisterRoutes(api)
		adminHandler.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
