package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

// fakeTokenServer 인증 코드 교환과 refresh를 흉내 내는 토큰 엔드포인트
type fakeTokenServer struct {
	refreshCalls  atomic.Int32
	exchangeCalls atomic.Int32
	rejectRefresh bool
}

func (f *fakeTokenServer) handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/token", func(w http.ResponseWriter, req *http.Request) {
		req.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch req.Form.Get("grant_type") {
		case "authorization_code":
			f.exchangeCalls.Add(1)
			if req.Form.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant"}`)
				return
			}
			fmt.Fprint(w, `{"access_token":"access-1","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`)
		case "refresh_token":
			f.refreshCalls.Add(1)
			if f.rejectRefresh {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`)
				return
			}
			fmt.Fprint(w, `{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	return r
}

func setupProvider(t *testing.T, f *fakeTokenServer) (*Provider, string) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	secret := fmt.Sprintf(`{"installed":{"client_id":"cid","client_secret":"csecret","auth_uri":"%s/auth","token_uri":"%s/token","redirect_uris":["http://localhost"]}}`, srv.URL, srv.URL)
	credentials := filepath.Join(dir, "client_secret.json")
	if err := os.WriteFile(credentials, []byte(secret), 0o600); err != nil {
		t.Fatal(err)
	}

	tokenPath := filepath.Join(dir, "nested", "token.json")
	p, err := NewProvider(Config{CredentialsPath: credentials, TokenPath: tokenPath})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return p, tokenPath
}

func TestNewProvider_MissingCredentials(t *testing.T) {
	_, err := NewProvider(Config{CredentialsPath: filepath.Join(t.TempDir(), "nope.json")})
	if !errors.Is(err, ErrCredentialsMissing) {
		t.Fatalf("expected ErrCredentialsMissing, got %v", err)
	}
}

func TestNewProvider_RedirectOverride(t *testing.T) {
	p, _ := setupProvider(t, &fakeTokenServer{})
	if p.oauth.RedirectURL != "http://localhost" {
		t.Errorf("expected redirect from client secret, got %q", p.oauth.RedirectURL)
	}

	p2, err := NewProvider(Config{
		CredentialsPath: filepath.Join(filepath.Dir(p.store.Path()), "..", "client_secret.json"),
		TokenPath:       p.store.Path(),
		RedirectURL:     OOBRedirectURL,
	})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p2.oauth.RedirectURL != OOBRedirectURL {
		t.Errorf("expected override %q, got %q", OOBRedirectURL, p2.oauth.RedirectURL)
	}
}

func TestTokenSource_NoToken(t *testing.T) {
	p, _ := setupProvider(t, &fakeTokenServer{})

	_, err := p.TokenSource(context.Background())
	var required *RequiredError
	if !errors.As(err, &required) {
		t.Fatalf("expected RequiredError, got %v", err)
	}
	u, err := url.Parse(required.AuthURL)
	if err != nil {
		t.Fatalf("invalid auth url: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "cid" || q.Get("access_type") != "offline" {
		t.Errorf("unexpected auth url query %v", q)
	}
	if !strings.Contains(q.Get("scope"), "https://www.googleapis.com/auth/documents") {
		t.Errorf("expected documents scope, got %q", q.Get("scope"))
	}
}

func TestExchange_SavesToken(t *testing.T) {
	f := &fakeTokenServer{}
	p, tokenPath := setupProvider(t, f)

	token, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if token.AccessToken != "access-1" {
		t.Errorf("unexpected access token %q", token.AccessToken)
	}

	info, err := os.Stat(tokenPath)
	if err != nil {
		t.Fatalf("token file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	saved, err := p.Store().Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if saved.RefreshToken != "refresh-1" {
		t.Errorf("expected refresh-1, got %q", saved.RefreshToken)
	}
}

func TestExchange_BadCode(t *testing.T) {
	p, tokenPath := setupProvider(t, &fakeTokenServer{})

	if _, err := p.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatal("expected error for bad code")
	}
	if _, err := os.Stat(tokenPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("token file should not exist after failed exchange")
	}
}

func TestTokenSource_ValidTokenNoRefresh(t *testing.T) {
	f := &fakeTokenServer{}
	p, _ := setupProvider(t, f)
	p.Store().Save(&oauth2.Token{AccessToken: "live", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)})

	ts, err := p.TokenSource(context.Background())
	if err != nil {
		t.Fatalf("TokenSource failed: %v", err)
	}
	token, err := ts.Token()
	if err != nil || token.AccessToken != "live" {
		t.Fatalf("expected live token, got %v %v", token, err)
	}
	if f.refreshCalls.Load() != 0 {
		t.Errorf("expected no refresh, got %d", f.refreshCalls.Load())
	}
}

func TestTokenSource_RefreshesAndPersists(t *testing.T) {
	f := &fakeTokenServer{}
	p, _ := setupProvider(t, f)
	p.Store().Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "refresh-1", Expiry: time.Now().Add(-time.Hour)})

	if _, err := p.TokenSource(context.Background()); err != nil {
		t.Fatalf("TokenSource failed: %v", err)
	}
	if f.refreshCalls.Load() != 1 {
		t.Errorf("expected 1 refresh, got %d", f.refreshCalls.Load())
	}

	saved, err := p.Store().Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if saved.AccessToken != "access-2" {
		t.Errorf("expected refreshed token persisted, got %q", saved.AccessToken)
	}
	if saved.RefreshToken != "refresh-1" {
		t.Errorf("refresh token should be kept, got %q", saved.RefreshToken)
	}
}

func TestTokenSource_RefreshRejected(t *testing.T) {
	f := &fakeTokenServer{rejectRefresh: true}
	p, _ := setupProvider(t, f)
	p.Store().Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)})

	_, err := p.TokenSource(context.Background())
	var required *RequiredError
	if !errors.As(err, &required) {
		t.Fatalf("expected RequiredError, got %v", err)
	}
	if required.Err == nil || required.AuthURL == "" {
		t.Errorf("expected cause and auth url, got %+v", required)
	}
}

func TestTokenSource_ExpiredWithoutRefreshToken(t *testing.T) {
	f := &fakeTokenServer{}
	p, _ := setupProvider(t, f)
	p.Store().Save(&oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(-time.Hour)})

	_, err := p.TokenSource(context.Background())
	var required *RequiredError
	if !errors.As(err, &required) {
		t.Fatalf("expected RequiredError, got %v", err)
	}
	if !errors.Is(err, ErrTokenExpired) || required.AuthURL == "" {
		t.Errorf("expected expired cause and auth url, got %+v", required)
	}
	if f.refreshCalls.Load() != 0 {
		t.Errorf("expected no refresh attempt, got %d", f.refreshCalls.Load())
	}
}

func TestTokenSource_NoExpiryWithoutRefreshToken(t *testing.T) {
	p, _ := setupProvider(t, &fakeTokenServer{})
	p.Store().Save(&oauth2.Token{AccessToken: "forever"})

	if _, err := p.TokenSource(context.Background()); err != nil {
		t.Fatalf("token without expiry should stay usable, got %v", err)
	}
}

func TestTokenStore(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	if store.Exists() {
		t.Fatal("store should not exist yet")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	if err := store.Save(&oauth2.Token{AccessToken: "a", RefreshToken: "b"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !store.Exists() {
		t.Fatal("store should exist after save")
	}
	token, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if token.AccessToken != "a" || token.RefreshToken != "b" {
		t.Errorf("unexpected token %+v", token)
	}
}

func TestTokenStore_EmptyAndCorrupt(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	os.WriteFile(empty, []byte(`{}`), 0o600)
	if _, err := NewTokenStore(empty).Load(); !errors.Is(err, ErrNoToken) {
		t.Errorf("empty token: expected ErrNoToken, got %v", err)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	os.WriteFile(corrupt, []byte(`not json`), 0o600)
	_, err := NewTokenStore(corrupt).Load()
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("corrupt token: expected json syntax error, got %v", err)
	}
}

func TestLoginLoopback(t *testing.T) {
	f := &fakeTokenServer{}
	p, _ := setupProvider(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	callbackErr := make(chan error, 1)
	onReady := func(authURL string) {
		u, err := url.Parse(authURL)
		if err != nil {
			callbackErr <- err
			return
		}
		q := u.Query()
		redirect := q.Get("redirect_uri") + "?code=good-code&state=" + url.QueryEscape(q.Get("state"))
		go func() {
			resp, err := http.Get(redirect)
			if err == nil {
				resp.Body.Close()
			}
			callbackErr <- err
		}()
	}

	token, err := p.LoginLoopback(ctx, "127.0.0.1:0", onReady)
	if err != nil {
		t.Fatalf("LoginLoopback failed: %v", err)
	}
	if token.AccessToken != "access-1" {
		t.Errorf("unexpected token %q", token.AccessToken)
	}
	if err := <-callbackErr; err != nil {
		t.Errorf("callback request failed: %v", err)
	}
	if !p.Store().Exists() {
		t.Error("token should be saved")
	}
}

func TestCallbackRouter(t *testing.T) {
	results := make(chan callbackResult, 1)
	srv := httptest.NewServer(callbackRouter("s1", results))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/?state=wrong&code=x")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("state mismatch: expected 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/?state=s1&error=access_denied")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	res := <-results
	if !errors.Is(res.err, ErrLoopbackDenied) {
		t.Errorf("expected ErrLoopbackDenied, got %v", res.err)
	}
}
