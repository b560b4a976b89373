package http

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"multas/internal/auth"
)

const testJWTSecret = "http-test-secret-with-32-bytes-min"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestIssuer(t *testing.T, opts ...auth.SessionOption) *auth.SessionIssuer {
	t.Helper()
	issuer, err := auth.NewSessionIssuer(testJWTSecret, "HS256", opts...)
	if err != nil {
		t.Fatalf("NewSessionIssuer returned error: %v", err)
	}
	return issuer
}

func issueExpiredToken(t *testing.T, userID uuid.UUID, email string) string {
	t.Helper()
	past := time.Now().Add(-auth.SessionTTL - time.Hour)
	issuer := newTestIssuer(t, auth.WithClock(func() time.Time { return past }))
	token, err := issuer.Issue(userID, email)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	return token
}

type authRepoStub struct {
	findUserByEmail   func(ctx context.Context, email string) (*auth.User, error)
	findUserByID      func(ctx context.Context, id uuid.UUID) (*auth.User, error)
	createUser        func(ctx context.Context, user auth.User) (auth.User, error)
	updateUserLogin   func(ctx context.Context, id uuid.UUID, name, picture string, refreshToken *string) (auth.User, error)
	clearRefreshToken func(ctx context.Context, id uuid.UUID) error
}

func (r *authRepoStub) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	if r.findUserByEmail != nil {
		return r.findUserByEmail(ctx, email)
	}
	return nil, nil
}

func (r *authRepoStub) FindUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	if r.findUserByID != nil {
		return r.findUserByID(ctx, id)
	}
	return nil, nil
}

func (r *authRepoStub) CreateUser(ctx context.Context, user auth.User) (auth.User, error) {
	if r.createUser != nil {
		return r.createUser(ctx, user)
	}
	return user, nil
}

func (r *authRepoStub) UpdateUserLogin(ctx context.Context, id uuid.UUID, name, picture string, refreshToken *string) (auth.User, error) {
	if r.updateUserLogin != nil {
		return r.updateUserLogin(ctx, id, name, picture, refreshToken)
	}
	return auth.User{ID: id, Name: name, Picture: picture, RefreshToken: refreshToken}, nil
}

func (r *authRepoStub) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	if r.clearRefreshToken != nil {
		return r.clearRefreshToken(ctx, id)
	}
	return nil
}

type fakeGoogleProvider struct {
	authURL     string
	tokens      *auth.TokenSet
	exchangeErr error
	profile     *auth.Profile
	profileErr  error

	exchangedCode string
	profileToken  string
}

func (f *fakeGoogleProvider) AuthURL() string {
	if f.authURL == "" {
		return "https://accounts.google.com/o/oauth2/auth?client_id=client-id"
	}
	return f.authURL
}

func (f *fakeGoogleProvider) Exchange(_ context.Context, code string) (*auth.TokenSet, error) {
	f.exchangedCode = code
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.tokens, nil
}

func (f *fakeGoogleProvider) FetchProfile(_ context.Context, accessToken string) (*auth.Profile, error) {
	f.profileToken = accessToken
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}
