package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"multas/internal/auth"
)

const (
	msgLogoutOK      = "Logout realizado com sucesso"
	msgUserNotFound  = "Usuário não encontrado"
	msgLogoutFailed  = "Erro ao realizar logout"
	msgUserLookupErr = "Erro ao buscar informações do usuário"
)

// SessionHandler serves the bearer-gated account endpoints.
type SessionHandler struct {
	authService *auth.Service
	logger      *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(authService *auth.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{authService: authService, logger: logger}
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		CreatedAt: u.CreatedAt,
	}
}

// Logout handles POST /auth/logout
// Clears the stored refresh token. The presented session token stays valid until it expires.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, msgMissingToken)
		return
	}

	if err := h.authService.Logout(r.Context(), identity.UserID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.logger.Error("logout failed", "error", err, "user_id", identity.UserID)
		writeError(w, http.StatusInternalServerError, msgLogoutFailed)
		return
	}

	h.logger.Info("user logged out", "user_id", identity.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": msgLogoutOK})
}

// Me handles GET /auth/me
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, msgMissingToken)
		return
	}

	user, err := h.authService.GetUser(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("user lookup failed", "error", err, "user_id", identity.UserID)
		writeError(w, http.StatusInternalServerError, msgUserLookupErr)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": newUserResponse(user)})
}
