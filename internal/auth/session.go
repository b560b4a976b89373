package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is the fixed lifetime of a session token.
const SessionTTL = 7 * 24 * time.Hour

// sessionClaims is the wire shape of a session token.
type sessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and verifies the stateless session tokens handed to the client
// application. It never consults the user directory.
type SessionIssuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// SessionOption customizes a SessionIssuer.
type SessionOption func(*SessionIssuer)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionIssuer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionIssuer creates an issuer for the given HMAC algorithm (HS256, HS384 or HS512).
func NewSessionIssuer(secret, algorithm string, opts ...SessionOption) (*SessionIssuer, error) {
	if secret == "" {
		return nil, errors.New("session issuer: secret is required")
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("session issuer: unsupported algorithm %q", algorithm)
	}

	s := &SessionIssuer{
		secret: []byte(secret),
		method: method,
		ttl:    SessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token carrying the user id and email, valid for SessionTTL.
func (s *SessionIssuer) Issue(userID uuid.UUID, email string) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a token and returns its payload.
// The signature is checked first, so a tampered token is reported as malformed even
// when it is also past its expiry.
func (s *SessionIssuer) Verify(raw string) (Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %w", ErrExpiredToken, err)
		}
		return Identity{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid userId claim", ErrMalformedToken)
	}
	if claims.Email == "" {
		return Identity{}, fmt.Errorf("%w: missing email claim", ErrMalformedToken)
	}

	return Identity{UserID: userID, Email: claims.Email}, nil
}
