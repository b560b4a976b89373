package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestBearerMiddlewareRejectsRequests(t *testing.T) {
	issuer := newTestIssuer(t)
	userID := uuid.New()
	valid, err := issuer.Issue(userID, "ana@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	tampered := valid[:strings.LastIndex(valid, ".")] + ".c2lnbmF0dXJl"

	tests := []struct {
		name        string
		header      string
		wantMessage string
	}{
		{"missing header", "", msgMissingToken},
		{"wrong scheme", "Basic " + valid, msgMissingToken},
		{"empty bearer", "Bearer   ", msgMissingToken},
		{"garbage", "Bearer garbage", msgInvalidToken},
		{"tampered", "Bearer " + tampered, msgInvalidToken},
		{"expired", "Bearer " + issueExpiredToken(t, userID, "ana@example.com"), msgExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := newBearerAuthMiddleware(issuer, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			next.ServeHTTP(rec, req)

			if called {
				t.Fatal("expected handler not to be invoked")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rec.Code)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Fatalf("expected WWW-Authenticate header, got %q", got)
			}
			if msg := decodeErrorBody(t, rec); msg != tt.wantMessage {
				t.Fatalf("expected message %q, got %q", tt.wantMessage, msg)
			}
		})
	}
}

func TestBearerMiddlewareInjectsIdentity(t *testing.T) {
	issuer := newTestIssuer(t)
	userID := uuid.New()
	token, err := issuer.Issue(userID, "ana@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	next := newBearerAuthMiddleware(issuer, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok || identity.UserID != userID || identity.Email != "ana@example.com" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for _, scheme := range []string{"Bearer", "bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", scheme+" "+token)
		rec := httptest.NewRecorder()

		next.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("scheme %q: expected status 200, got %d", scheme, rec.Code)
		}
	}
}

func TestIdentityFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := IdentityFromContext(req.Context()); ok {
		t.Fatal("expected no identity on a bare context")
	}
}

func TestRecoveryMiddlewareReturnsJSON500(t *testing.T) {
	next := newRecoveryMiddleware(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()

	next.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if msg := decodeErrorBody(t, rec); msg != msgInternalError {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	newSecurityHeadersMiddleware("production")(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff header")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS outside development")
	}

	rec = httptest.NewRecorder()
	newSecurityHeadersMiddleware("development")(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("expected no HSTS in development")
	}
}
