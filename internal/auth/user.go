package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is the local account anchored on a verified Google email.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Picture      string
	GoogleID     string
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the identity returned by Google's userinfo endpoint.
type Profile struct {
	Subject       string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// TokenSet holds the provider tokens obtained for a single callback.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scope        string
	IDToken      string

	// Subject is the verified id_token subject, empty when no id_token was checked.
	Subject string
}

// MatchesProfile reports whether the profile belongs to the account the tokens were
// issued for. Without a verified id_token there is nothing to compare.
func (t *TokenSet) MatchesProfile(p *Profile) bool {
	if t == nil || p == nil {
		return false
	}
	return t.Subject == "" || t.Subject == p.Subject
}

// Identity is the payload carried by a session token.
type Identity struct {
	UserID uuid.UUID
	Email  string
}
