package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer      = "https://accounts.google.com"
	googleJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	maxUserInfoBytes = 1 << 20
)

// GoogleConfig carries the OAuth client registration and the outbound call timeout.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

// GoogleClient performs the server side of Google's authorization-code grant.
type GoogleClient struct {
	config      *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
	verifier    *oidc.IDTokenVerifier
}

// NewGoogleClient creates a GoogleClient. No network call is made until the first
// exchange; Google's signing keys are fetched lazily.
func NewGoogleClient(cfg GoogleConfig) *GoogleClient {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), httpClient), googleJWKSURL)

	return &GoogleClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"email", "profile"},
		},
		httpClient:  httpClient,
		userInfoURL: googleUserInfoURL,
		verifier:    oidc.NewVerifier(googleIssuer, keySet, &oidc.Config{ClientID: cfg.ClientID}),
	}
}

// AuthURL returns the consent URL. Offline access with a forced consent prompt makes
// Google hand out a refresh token on every login.
func (g *GoogleClient) AuthURL() string {
	return g.config.AuthCodeURL(
		"",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades a single-use authorization code for the provider tokens. Codes
// cannot be replayed, so failures are returned without retrying.
func (g *GoogleClient) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %w", ErrUpstreamAuth, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: token exchange returned no access token", ErrUpstreamAuth)
	}

	set := &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		Scope:        extraString(token, "scope"),
		IDToken:      extraString(token, "id_token"),
	}

	if set.IDToken != "" && g.verifier != nil {
		idToken, err := g.verifier.Verify(ctx, set.IDToken)
		if err != nil {
			return nil, fmt.Errorf("%w: verify id_token: %w", ErrUpstreamAuth, err)
		}
		set.Subject = idToken.Subject
	}

	return set, nil
}

// FetchProfile loads the userinfo document for the given access token.
func (g *GoogleClient) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build userinfo request: %w", ErrUpstreamAuth, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request: %w", ErrUpstreamAuth, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: userinfo status %d: %s", ErrUpstreamAuth, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var profile Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %w", ErrUpstreamAuth, err)
	}
	if profile.Subject == "" || profile.Email == "" {
		return nil, fmt.Errorf("%w: userinfo missing id or email", ErrUpstreamAuth)
	}
	profile.Email = normalizeEmail(profile.Email)

	return &profile, nil
}

func extraString(token *oauth2.Token, key string) string {
	value, _ := token.Extra(key).(string)
	return value
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
