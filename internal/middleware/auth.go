package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dialogrelay/internal/service/client"
	"dialogrelay/pkg/utils"
)

// BotAuth verifies the webhook auth token of the client addressed by the
// route. It must be mounted inside a route that binds {clientID}, so the
// parameter is resolved before it runs.
func BotAuth(registry *client.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := chi.URLParam(r, "clientID")
			c, ok := registry.Get(clientID)
			if !ok {
				utils.RespondError(w, http.StatusNotFound, "unknown client")
				return
			}
			if !c.VerifyToken(r.URL.Query().Get("token")) {
				utils.RespondError(w, http.StatusUnauthorized, "invalid auth token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
