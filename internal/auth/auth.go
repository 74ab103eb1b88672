// Package auth provides app-only OAuth credentials for the social source.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is the social source's access token endpoint.
const DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"

// Credentials holds the application id, secret and the user agent the
// source requires on every call.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
}

// LoadCredentials validates and returns credentials.
func LoadCredentials(clientID, clientSecret, userAgent string) (*Credentials, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("client secret is required")
	}
	if userAgent == "" {
		return nil, fmt.Errorf("user agent is required")
	}
	return &Credentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserAgent:    userAgent,
	}, nil
}

// TokenProvider obtains a client-credentials token, caches it until shortly
// before expiry and signs requests with it.
type TokenProvider struct {
	creds  *Credentials
	cfg    clientcredentials.Config
	ctx    context.Context
	logger *slog.Logger

	mu  sync.Mutex
	src oauth2.TokenSource
}

// NewTokenProvider creates a provider. httpClient may be nil.
func NewTokenProvider(creds *Credentials, tokenURL string, httpClient *http.Client, logger *slog.Logger) *TokenProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	// The token endpoint rejects requests without the application's agent.
	hc := *httpClient
	hc.Transport = &userAgentTransport{agent: creds.UserAgent, next: transportOf(httpClient)}

	p := &TokenProvider{
		creds: creds,
		cfg: clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		ctx:    context.WithValue(context.Background(), oauth2.HTTPClient, &hc),
		logger: logger.With("component", "auth"),
	}
	p.src = p.cfg.TokenSource(p.ctx)
	return p
}

// Token returns a valid access token, fetching a new one when needed.
func (p *TokenProvider) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	src := p.src
	p.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("obtain token: %w", err)
	}
	return tok, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	p.src = p.cfg.TokenSource(p.ctx)
	p.mu.Unlock()
	p.logger.Debug("token invalidated")
}

// Authorize sets the bearer token and user agent on req.
func (p *TokenProvider) Authorize(_ context.Context, req *http.Request) error {
	tok, err := p.Token()
	if err != nil {
		return err
	}
	tok.SetAuthHeader(req)
	req.Header.Set("User-Agent", p.creds.UserAgent)
	return nil
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(r)
}

func transportOf(hc *http.Client) http.RoundTripper {
	if hc.Transport != nil {
		return hc.Transport
	}
	return http.DefaultTransport
}
