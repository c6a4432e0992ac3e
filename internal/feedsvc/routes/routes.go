package routes

import (
	"net/http"

	"github.com/avvvet/deckvault-services/internal/auth"
	"github.com/avvvet/deckvault-services/internal/feedsvc/handlers"
	"github.com/avvvet/deckvault-services/internal/feedsvc/ws"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

// tokenFromTokenParam reads ?token=; browsers cannot set headers on websocket requests.
func tokenFromTokenParam(r *http.Request) string {
	return r.URL.Query().Get("token")
}

func SetRoutes(r chi.Router, s *ws.Ws, tokenAuth *jwtauth.JWTAuth, port string, checkOrigin func(*http.Request) bool) {
	h := handlers.NewHandler(s, port, checkOrigin)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(tokenAuth, tokenFromTokenParam, jwtauth.TokenFromQuery, jwtauth.TokenFromHeader))
			r.Use(jwtauth.Authenticator)
			r.Use(auth.OwnerCtx)

			r.Get("/ws", h.HandleWebSocket)
		})
	})
}
