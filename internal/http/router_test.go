package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"multas/internal/auth"
	"multas/internal/config"
)

func newTestRouter(t *testing.T, repo auth.Repository, issuer *auth.SessionIssuer) http.Handler {
	t.Helper()
	cfg := config.Config{
		Environment:    "development",
		ClientURL:      testClientURL,
		AllowedOrigins: []string{testClientURL},
	}
	return NewRouter(cfg, verifiedGoogleProvider(), auth.NewService(repo), issuer, discardLogger())
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t, auth.NewInMemoryRepository(), newTestIssuer(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected status %q", body["status"])
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"]); err != nil {
		t.Fatalf("expected RFC3339 timestamp, got %q", body["timestamp"])
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers on every response")
	}
}

func TestRouterGatesProtectedRoutes(t *testing.T) {
	router := newTestRouter(t, auth.NewInMemoryRepository(), newTestIssuer(t))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/auth/me"},
		{http.MethodPost, "/auth/logout"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected status 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRouterLoginThenMe(t *testing.T) {
	issuer := newTestIssuer(t)
	router := newTestRouter(t, auth.NewInMemoryRepository(), issuer)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=good-code", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	location, err := rec.Result().Location()
	if err != nil {
		t.Fatalf("read location: %v", err)
	}
	token := location.Query().Get("token")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterInitiateRedirects(t *testing.T) {
	router := newTestRouter(t, auth.NewInMemoryRepository(), newTestIssuer(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t, auth.NewInMemoryRepository(), newTestIssuer(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/multas", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json; charset=utf-8" {
		t.Fatalf("expected JSON 404, got %q", rec.Header().Get("Content-Type"))
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, auth.NewInMemoryRepository(), newTestIssuer(t))

	req := httptest.NewRequest(http.MethodOptions, "/auth/me", nil)
	req.Header.Set("Origin", testClientURL)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != testClientURL {
		t.Fatalf("expected CORS origin %q, got %q", testClientURL, got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
}
