package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestLoadCredentials(t *testing.T) {
	tests := []struct {
		name                  string
		id, secret, userAgent string
		wantErr               bool
	}{
		{"valid", "id", "secret", "tickersense/1.0", false},
		{"missing id", "", "secret", "ua", true},
		{"missing secret", "id", "", "ua", true},
		{"missing user agent", "id", "secret", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCredentials(tt.id, tt.secret, tt.userAgent)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadCredentials() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func tokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		id, secret, ok := r.BasicAuth()
		if !ok || id != "app" || secret != "shh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("User-Agent") != "tickersense/test" {
			t.Errorf("token request User-Agent = %q", r.Header.Get("User-Agent"))
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	}))
}

func TestTokenProvider_AuthorizeCachesToken(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)
	defer srv.Close()

	creds := &Credentials{ClientID: "app", ClientSecret: "shh", UserAgent: "tickersense/test"}
	p := NewTokenProvider(creds, srv.URL, srv.Client(), nil)

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, "https://oauth.example.com/r/stocks/new", nil)
		if err := p.Authorize(context.Background(), req); err != nil {
			t.Fatalf("Authorize() error = %v", err)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok-1")
		}
		if got := req.Header.Get("User-Agent"); got != "tickersense/test" {
			t.Errorf("User-Agent = %q, want %q", got, "tickersense/test")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("token requests = %d, want 1", calls.Load())
	}

	p.Invalidate()
	req, _ := http.NewRequest(http.MethodGet, "https://oauth.example.com/", nil)
	if err := p.Authorize(context.Background(), req); err != nil {
		t.Fatalf("Authorize() after Invalidate error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("token requests after Invalidate = %d, want 2", calls.Load())
	}
}

func TestTokenProvider_BadCredentials(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)
	defer srv.Close()

	creds := &Credentials{ClientID: "app", ClientSecret: "wrong", UserAgent: "tickersense/test"}
	p := NewTokenProvider(creds, srv.URL, srv.Client(), nil)

	req, _ := http.NewRequest(http.MethodGet, "https://oauth.example.com/", nil)
	if err := p.Authorize(context.Background(), req); err == nil {
		t.Error("Authorize() error = nil, want error for rejected credentials")
	}
}
