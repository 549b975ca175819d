package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestGitHubOAuthProvider_GetLoginURL(t *testing.T) {
	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "http://localhost:3000/auth/github/callback",
	})

	loginURL := provider.GetLoginURL("state-123")

	parsed, err := url.Parse(loginURL)
	if err != nil {
		t.Fatalf("login URL should parse: %v", err)
	}
	if parsed.Host != "github.com" {
		t.Errorf("host = %q, want %q", parsed.Host, "github.com")
	}

	q := parsed.Query()
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "state-123" {
		t.Errorf("state = %q", q.Get("state"))
	}
	// サイレント再認可を防ぐため毎回同意を要求する
	if q.Get("prompt") != "consent" {
		t.Errorf("prompt = %q, want %q", q.Get("prompt"), "consent")
	}
	if q.Get("redirect_uri") != "http://localhost:3000/auth/github/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

func TestGitHubOAuthProvider_ExchangeCode_Success(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q, want application/json", r.Header.Get("Accept"))
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostFormValue("code") != "auth-code" {
			t.Errorf("code = %q", r.PostFormValue("code"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gho_token","token_type":"bearer","scope":"read:user"}`))
	}))
	defer tokenServer.Close()

	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer gho_token") {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":583231,"login":"octocat","name":"The Octocat","avatar_url":"https://example.com/a.png"}`))
	}))
	defer userServer.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "http://localhost:3000/auth/github/callback",
		TokenURL:     tokenServer.URL,
		UserURL:      userServer.URL,
	})

	profile, err := provider.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if profile.ProviderUserID != "583231" {
		t.Errorf("ProviderUserID = %q, want %q", profile.ProviderUserID, "583231")
	}
	if profile.Username != "octocat" {
		t.Errorf("Username = %q, want %q", profile.Username, "octocat")
	}
	if profile.DisplayName != "The Octocat" {
		t.Errorf("DisplayName = %q, want %q", profile.DisplayName, "The Octocat")
	}
	if profile.Provider != "github" {
		t.Errorf("Provider = %q, want %q", profile.Provider, "github")
	}
	// プロバイダー固有フィールドがRawに無加工で残ること
	if _, ok := profile.Raw["avatar_url"]; !ok {
		t.Error("Raw should preserve avatar_url")
	}
}

func TestGitHubOAuthProvider_ExchangeCode_TokenError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad_verification_code"}`))
	}))
	defer tokenServer.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		ClientID: "client-id",
		TokenURL: tokenServer.URL,
	})

	if _, err := provider.ExchangeCode(context.Background(), "bad-code"); err == nil {
		t.Fatal("expected error for failed token exchange")
	}
}

func TestGitHubOAuthProvider_ExchangeCode_EmptyToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// GitHubは失敗時も200でエラーボディを返すことがある
		w.Write([]byte(`{"error":"incorrect_client_credentials"}`))
	}))
	defer tokenServer.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		ClientID: "client-id",
		TokenURL: tokenServer.URL,
	})

	if _, err := provider.ExchangeCode(context.Background(), "code"); err == nil {
		t.Fatal("expected error for empty access token")
	}
}
