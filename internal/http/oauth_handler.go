package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"multas/internal/auth"
)

// Login failure codes understood by the client application.
const (
	loginErrNoCode           = "no_code"
	loginErrGoogleAuthFailed = "google_auth_failed"
	loginErrEmailNotVerified = "email_not_verified"
	loginErrServerError      = "server_error"
)

// GoogleProvider is the identity provider side of the login flow.
type GoogleProvider interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) (*auth.TokenSet, error)
	FetchProfile(ctx context.Context, accessToken string) (*auth.Profile, error)
}

// sessionMinter issues session tokens for logged-in users.
type sessionMinter interface {
	Issue(userID uuid.UUID, email string) (string, error)
}

// OAuthHandler handles the Google login endpoints.
type OAuthHandler struct {
	google      GoogleProvider
	authService *auth.Service
	sessions    sessionMinter
	logger      *slog.Logger
	clientURL   string
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(google GoogleProvider, authService *auth.Service, sessions sessionMinter, clientURL string, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{
		google:      google,
		authService: authService,
		sessions:    sessions,
		logger:      logger,
		clientURL:   strings.TrimSuffix(clientURL, "/"),
	}
}

// InitiateGoogle handles GET /auth/google
// Redirects the user to Google's consent screen.
func (h *OAuthHandler) InitiateGoogle(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.google.AuthURL(), http.StatusFound)
}

// CallbackGoogle handles GET /auth/google/callback
// Exchanges the code, upserts the user and hands a session token to the client app.
func (h *OAuthHandler) CallbackGoogle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("oauth callback: provider error", "error", errParam, "description", query.Get("error_description"))
	}

	code := query.Get("code")
	if code == "" {
		h.redirectWithError(w, r, loginErrNoCode)
		return
	}

	tokens, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", "error", err)
		h.redirectWithError(w, r, loginErrGoogleAuthFailed)
		return
	}

	profile, err := h.google.FetchProfile(r.Context(), tokens.AccessToken)
	if err != nil {
		h.logger.Error("oauth callback: profile fetch failed", "error", err)
		h.redirectWithError(w, r, loginErrGoogleAuthFailed)
		return
	}

	if !tokens.MatchesProfile(profile) {
		h.logger.Warn("oauth callback: id_token subject does not match profile", "subject", tokens.Subject, "profile_id", profile.Subject)
		h.redirectWithError(w, r, loginErrGoogleAuthFailed)
		return
	}

	if !profile.EmailVerified {
		h.logger.Warn("oauth callback: email not verified", "email", profile.Email)
		h.redirectWithError(w, r, loginErrEmailNotVerified)
		return
	}

	user, err := h.authService.CreateOrUpdateUser(r.Context(), profile, tokens.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailNotVerified):
			h.redirectWithError(w, r, loginErrEmailNotVerified)
		case errors.Is(err, auth.ErrUpstreamAuth):
			h.logger.Error("oauth callback: unusable profile", "error", err)
			h.redirectWithError(w, r, loginErrGoogleAuthFailed)
		default:
			h.logger.Error("oauth callback: user upsert failed", "error", err)
			h.redirectWithError(w, r, loginErrServerError)
		}
		return
	}

	token, err := h.sessions.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Error("oauth callback: session issue failed", "error", err, "user_id", user.ID)
		h.redirectWithError(w, r, loginErrServerError)
		return
	}

	h.logger.Info("oauth login successful", "user_id", user.ID, "email", user.Email)

	http.Redirect(w, r, h.clientURL+"/auth/callback?token="+url.QueryEscape(token), http.StatusFound)
}

// redirectWithError sends the browser to the client login page with a failure code.
func (h *OAuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.clientURL+"/login?error="+url.QueryEscape(code), http.StatusFound)
}
