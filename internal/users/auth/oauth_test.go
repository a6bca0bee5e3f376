// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/coreos/go-oidc/v3/oidc/oidctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crewdesk/internal/platform/config"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/users/auth"
)

const (
	testClientID = "crewdesk"
	testKeyID    = "test-key"
	goodCode     = "good-code"
)

// identityProvider is an OpenID Connect provider with a working token endpoint.
type identityProvider struct {
	server *httptest.Server
	key    *rsa.PrivateKey

	mutex         sync.Mutex
	nonce         string
	email         string
	emailVerified bool
}

func newIdentityProvider(t *testing.T) *identityProvider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	discovery := &oidctest.Server{
		PublicKeys: []oidctest.PublicKey{{PublicKey: key.Public(), KeyID: testKeyID, Algorithm: oidc.RS256}},
	}

	idp := &identityProvider{key: key, email: "Olga@Example.com", emailVerified: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", idp.token)
	mux.Handle("/", discovery)

	idp.server = httptest.NewServer(mux)
	t.Cleanup(idp.server.Close)
	discovery.SetIssuer(idp.server.URL)
	return idp
}

func (idp *identityProvider) set(fn func(*identityProvider)) {
	idp.mutex.Lock()
	defer idp.mutex.Unlock()
	fn(idp)
}

func (idp *identityProvider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != goodCode {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}

	idp.mutex.Lock()
	claims, _ := json.Marshal(map[string]any{
		"iss":            idp.server.URL,
		"aud":            testClientID,
		"sub":            "provider-user-1",
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
		"nonce":          idp.nonce,
		"email":          idp.email,
		"email_verified": idp.emailVerified,
		"name":           "Olga",
	})
	idp.mutex.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "access",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     oidctest.SignIDToken(idp.key, testKeyID, oidc.RS256, string(claims)),
	})
}

func newOAuthProvider(t *testing.T, idp *identityProvider, accounts auth.AccountRepository) *auth.OAuthProvider {
	t.Helper()
	cfg := &config.Config{
		BaseURL:       "https://crew.example.org",
		SessionSecret: strings.Repeat("s", 32),
		OAuth: config.OAuthConfig{
			ProviderID:   "test-idp",
			ClientID:     testClientID,
			ClientSecret: "client-secret",
			DiscoveryURL: idp.server.URL + "/.well-known/openid-configuration",
		},
	}

	provider, err := auth.NewOAuthProvider(context.Background(), cfg, accounts)
	require.NoError(t, err)
	return provider
}

// started is the browser side of a begun flow.
type started struct {
	state  string
	nonce  string
	cookie *http.Cookie
}

func begin(t *testing.T, idp *identityProvider, provider *auth.OAuthProvider, callback string) started {
	t.Helper()
	rec := httptest.NewRecorder()
	target, err := provider.Begin(rec, callback)
	require.NoError(t, err)

	parsed, err := url.Parse(target)
	require.NoError(t, err)
	query := parsed.Query()

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == constants.OAuthNonceCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	// The provider echoes the requested nonce into the ID token
	idp.set(func(p *identityProvider) { p.nonce = query.Get("nonce") })
	return started{state: query.Get("state"), nonce: query.Get("nonce"), cookie: cookie}
}

func callbackRequest(query url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, constants.PathOAuthCallback+"?"+query.Encode(), nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestOAuth_BeginBuildsAuthorizeURL(t *testing.T) {
	idp := newIdentityProvider(t)
	provider := newOAuthProvider(t, idp, newMemoryAccounts())

	rec := httptest.NewRecorder()
	target, err := provider.Begin(rec, "https://evil.example/")
	require.NoError(t, err)

	parsed, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, idp.server.URL+"/auth", parsed.Scheme+"://"+parsed.Host+parsed.Path)

	query := parsed.Query()
	assert.Equal(t, testClientID, query.Get("client_id"))
	assert.Equal(t, "https://crew.example.org/api/auth/oauth/callback", query.Get("redirect_uri"))
	assert.Contains(t, strings.Fields(query.Get("scope")), "openid")
	assert.NotEmpty(t, query.Get("state"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.PathOAuthCallback, cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, query.Get("nonce"), cookies[0].Value)
	assert.Equal(t, "test-idp", provider.ProviderID())
}

func TestOAuth_CompleteCreatesAccount(t *testing.T) {
	idp := newIdentityProvider(t)
	accounts := newMemoryAccounts()
	provider := newOAuthProvider(t, idp, accounts)
	flow := begin(t, idp, provider, "/events/7")

	rec := httptest.NewRecorder()
	account, callback, err := provider.Complete(rec, callbackRequest(url.Values{
		"code": {goodCode}, "state": {flow.state},
	}, flow.cookie))

	require.NoError(t, err)
	assert.Equal(t, "/events/7", callback)
	assert.Equal(t, "olga@example.com", account.Email)
	assert.Equal(t, "Olga", account.Name)
	assert.True(t, account.EmailVerified)

	// The nonce cookie is spent
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestOAuth_CompleteLinksExistingAccount(t *testing.T) {
	idp := newIdentityProvider(t)
	accounts := newMemoryAccounts()
	existing := accounts.seed(t, "acc-local", "olga@example.com", strongPassword)
	provider := newOAuthProvider(t, idp, accounts)
	flow := begin(t, idp, provider, "/")

	account, _, err := provider.Complete(httptest.NewRecorder(), callbackRequest(url.Values{
		"code": {goodCode}, "state": {flow.state},
	}, flow.cookie))

	require.NoError(t, err)
	assert.Equal(t, existing.ID, account.ID)
	assert.True(t, account.EmailVerified)
}

func TestOAuth_CompleteRefusesUnverifiedLink(t *testing.T) {
	idp := newIdentityProvider(t)
	idp.set(func(p *identityProvider) { p.emailVerified = false })
	accounts := newMemoryAccounts()
	admin := accounts.seed(t, "acc-admin", "olga@example.com", strongPassword)
	provider := newOAuthProvider(t, idp, accounts)
	flow := begin(t, idp, provider, "/admin")

	account, callback, err := provider.Complete(httptest.NewRecorder(), callbackRequest(url.Values{
		"code": {goodCode}, "state": {flow.state},
	}, flow.cookie))

	assert.ErrorIs(t, err, auth.ErrOAuthFailed)
	assert.Nil(t, account)
	assert.Empty(t, callback)
	assert.Len(t, accounts.byID, 1)
	assert.False(t, accounts.byID[admin.ID].EmailVerified)
}

func TestOAuth_CompleteUnverifiedCreatesNewAccount(t *testing.T) {
	idp := newIdentityProvider(t)
	idp.set(func(p *identityProvider) { p.emailVerified = false })
	accounts := newMemoryAccounts()
	provider := newOAuthProvider(t, idp, accounts)
	flow := begin(t, idp, provider, "/")

	account, _, err := provider.Complete(httptest.NewRecorder(), callbackRequest(url.Values{
		"code": {goodCode}, "state": {flow.state},
	}, flow.cookie))

	require.NoError(t, err)
	assert.Equal(t, "olga@example.com", account.Email)
	assert.False(t, account.EmailVerified)
}

/*
TestOAuth_CompleteFailures checks that every broken callback ends in
ErrOAuthFailed without creating an account.
*/
func TestOAuth_CompleteFailures(t *testing.T) {
	tests := []struct {
		name  string
		alter func(flow *started, query url.Values, idp *identityProvider)
	}{
		{"missing_nonce_cookie", func(flow *started, _ url.Values, _ *identityProvider) { flow.cookie = nil }},
		{"other_browser", func(flow *started, _ url.Values, _ *identityProvider) {
			flow.cookie = &http.Cookie{Name: constants.OAuthNonceCookieName, Value: "someone-else"}
		}},
		{"tampered_state", func(_ *started, query url.Values, _ *identityProvider) { query.Set("state", query.Get("state")+"x") }},
		{"provider_error", func(_ *started, query url.Values, _ *identityProvider) { query.Set("error", "access_denied") }},
		{"bad_code", func(_ *started, query url.Values, _ *identityProvider) { query.Set("code", "stolen") }},
		{"id_token_nonce", func(_ *started, _ url.Values, idp *identityProvider) {
			idp.set(func(p *identityProvider) { p.nonce = "replayed" })
		}},
		{"email_missing", func(_ *started, _ url.Values, idp *identityProvider) {
			idp.set(func(p *identityProvider) { p.email = "" })
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := newIdentityProvider(t)
			accounts := newMemoryAccounts()
			provider := newOAuthProvider(t, idp, accounts)
			flow := begin(t, idp, provider, "/events/7")

			query := url.Values{"code": {goodCode}, "state": {flow.state}}
			tt.alter(&flow, query, idp)

			account, _, err := provider.Complete(httptest.NewRecorder(), callbackRequest(query, flow.cookie))

			assert.ErrorIs(t, err, auth.ErrOAuthFailed)
			assert.Nil(t, account)
			assert.Empty(t, accounts.byID)
		})
	}
}

/*
TestHandler_OAuthMode drives the sign-in button, the provider callback and
the disabled credential pages through the router.
*/
func TestHandler_OAuthMode(t *testing.T) {
	idp := newIdentityProvider(t)
	f := newServiceFixture(false)
	a := mountApp(f, newOAuthProvider(t, idp, f.accounts))

	// 1. Credential pages bounce to sign-in
	rec := a.get("/signup")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin", rec.Header().Get("Location"))

	// 2. The sign-in page shows no password field
	page := a.get("/signin")
	assert.NotContains(t, page.Body.String(), `name="password"`)
	assert.Contains(t, page.Body.String(), "Sign in with test-idp")

	// 3. Sign-in redirects to the provider
	rec = a.post("/signin", url.Values{"callbackUrl": {"/events/9"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	target, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(target.String(), idp.server.URL+"/auth"))

	var nonceCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == constants.OAuthNonceCookieName {
			nonceCookie = c
		}
	}
	require.NotNil(t, nonceCookie)
	idp.set(func(p *identityProvider) { p.nonce = target.Query().Get("nonce") })

	// 4. The callback signs in and returns to the page
	rec = a.get(constants.PathOAuthCallback+"?"+url.Values{
		"code": {goodCode}, "state": {target.Query().Get("state")},
	}.Encode(), nonceCookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/events/9", rec.Header().Get("Location"))

	rec = a.get("/events/9", sessionCookie(t, rec))
	assert.Equal(t, http.StatusOK, rec.Code)

	// 5. A failed callback lands on the sign-in error
	rec = a.get(constants.PathOAuthCallback + "?code=x&state=y")
	assert.Equal(t, "/signin?error=oauth_failed", rec.Header().Get("Location"))
}
