package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"multas/internal/auth"
	"multas/internal/config"
)

const requestTimeout = 30 * time.Second

// NewRouter wires the auth routes and middleware using chi.
func NewRouter(cfg config.Config, google GoogleProvider, authService *auth.Service, sessions *auth.SessionIssuer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newSlogMiddleware(logger))
	r.Use(newRecoveryMiddleware(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	oauthHandler := NewOAuthHandler(google, authService, sessions, cfg.ClientURL, logger)
	sessionHandler := NewSessionHandler(authService, logger)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":    "ok",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		})

		r.Get("/google", oauthHandler.InitiateGoogle)
		r.Get("/google/callback", oauthHandler.CallbackGoogle)

		r.Group(func(r chi.Router) {
			r.Use(newBearerAuthMiddleware(sessions, logger))
			r.Post("/logout", sessionHandler.Logout)
			r.Get("/me", sessionHandler.Me)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Rota não encontrada")
	})

	return r
}
