// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/taibuivan/crewdesk/internal/platform/apperr"
	"github.com/taibuivan/crewdesk/internal/platform/config"
	"github.com/taibuivan/crewdesk/internal/platform/constants"
	"github.com/taibuivan/crewdesk/internal/platform/ctxutil"
	"github.com/taibuivan/crewdesk/internal/platform/redirect"
	"github.com/taibuivan/crewdesk/internal/platform/sec"
	"github.com/taibuivan/crewdesk/pkg/uuid"
)

const wellKnownSuffix = "/.well-known/openid-configuration"

// nonceLength is the byte length of the browser-binding nonce.
const nonceLength = 16

// OAuthProvider runs the authorization-code flow against an OpenID Connect provider.
type OAuthProvider struct {
	providerID string
	oauth      oauth2.Config
	verifier   *oidc.IDTokenVerifier
	signer     *sec.StateSigner
	accounts   AccountRepository
	secure     bool
}

// OAuthOption configures the provider.
type OAuthOption func(*OAuthProvider)

// WithStateSigner replaces the state signer. Used by tests to control time.
func WithStateSigner(signer *sec.StateSigner) OAuthOption {
	return func(provider *OAuthProvider) { provider.signer = signer }
}

/*
NewOAuthProvider discovers the provider and prepares the client.

Discovery runs once at startup; failure to reach the provider is a startup
error. Pass an HTTP client through [oidc.ClientContext] on ctx to override
transport.
*/
func NewOAuthProvider(ctx context.Context, cfg *config.Config, accounts AccountRepository, opts ...OAuthOption) (*OAuthProvider, error) {
	issuer := strings.TrimSuffix(strings.TrimSuffix(cfg.OAuth.DiscoveryURL, wellKnownSuffix), "/")

	discovered, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("auth_oauth_discovery_failed: %w", err)
	}

	provider := &OAuthProvider{
		providerID: cfg.OAuth.ProviderID,
		oauth: oauth2.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			Endpoint:     discovered.Endpoint(),
			RedirectURL:  strings.TrimSuffix(cfg.BaseURL, "/") + constants.PathOAuthCallback,
			Scopes:       OAuthScopes,
		},
		verifier: discovered.Verifier(&oidc.Config{ClientID: cfg.OAuth.ClientID}),
		signer:   sec.NewStateSigner(cfg.SessionSecret, StateIssuer),
		accounts: accounts,
		secure:   cfg.IsProduction(),
	}

	for _, opt := range opts {
		opt(provider)
	}
	return provider, nil
}

// ProviderID returns the configured provider identifier.
func (provider *OAuthProvider) ProviderID() string {
	return provider.providerID
}

/*
Begin starts a sign-in and returns the provider authorize URL.

The signed state carries the sanitised callback and a nonce; the same nonce
goes into a short-lived cookie so the callback only completes in the browser
that started the flow.
*/
func (provider *OAuthProvider) Begin(writer http.ResponseWriter, callback string) (string, error) {
	nonce, err := sec.GenerateSecureToken(nonceLength)
	if err != nil {
		return "", fmt.Errorf("auth_oauth_nonce_failed: %w", err)
	}

	state, err := provider.signer.Sign(nonce, redirect.Sanitize(callback), constants.OAuthStateTTL)
	if err != nil {
		return "", fmt.Errorf("auth_oauth_state_failed: %w", err)
	}

	cookie := authCookie(constants.OAuthNonceCookieName, nonce, provider.secure)
	cookie.Path = constants.PathOAuthCallback
	cookie.MaxAge = int(constants.OAuthStateTTL / time.Second)
	http.SetCookie(writer, cookie)

	return provider.oauth.AuthCodeURL(state, oidc.Nonce(nonce)), nil
}

// idClaims are the ID token claims crewdesk reads.
type idClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

/*
Complete finishes the flow at the callback and returns the account and the
sanitised callback path.

Every failure is reported as [ErrOAuthFailed]; the cause is logged, never
shown to the user. An email the provider has not verified can create an
account but is refused when an account with that email already exists.
*/
func (provider *OAuthProvider) Complete(writer http.ResponseWriter, request *http.Request) (*Account, string, error) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	fail := func(stage string, err error) (*Account, string, error) {
		logger.WarnContext(ctx, "auth_oauth_failed", slog.String("stage", stage), slog.Any("error", err))
		return nil, "", ErrOAuthFailed
	}

	// ── 1. Browser binding ──
	nonceCookie, err := request.Cookie(constants.OAuthNonceCookieName)
	if err != nil || nonceCookie.Value == "" {
		return fail("nonce_cookie", err)
	}
	cleared := authCookie(constants.OAuthNonceCookieName, "", provider.secure)
	cleared.Path = constants.PathOAuthCallback
	cleared.MaxAge = -1
	http.SetCookie(writer, cleared)

	query := request.URL.Query()
	if providerError := query.Get("error"); providerError != "" {
		return fail("provider_error", fmt.Errorf("provider returned %q", providerError))
	}

	state, err := provider.signer.Verify(query.Get("state"), nonceCookie.Value)
	if err != nil {
		return fail("state", err)
	}

	// ── 2. Code exchange ──
	token, err := provider.oauth.Exchange(ctx, query.Get("code"))
	if err != nil {
		return fail("exchange", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return fail("id_token_missing", nil)
	}

	// ── 3. ID token ──
	idToken, err := provider.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return fail("id_token", err)
	}
	if idToken.Nonce != nonceCookie.Value {
		return fail("id_token_nonce", nil)
	}

	var claims idClaims
	if err := idToken.Claims(&claims); err != nil {
		return fail("claims", err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return fail("email_missing", nil)
	}

	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = DefaultAccountName
	}

	// ── 4. Account ──
	// An unverified address may only create a new account, never take over one.
	if !claims.EmailVerified {
		existing, err := provider.accounts.FindByEmail(ctx, email)
		switch {
		case err == nil && existing != nil:
			return fail("email_unverified", nil)
		case err != nil && !apperr.HasCode(err, "NOT_FOUND"):
			return nil, "", fmt.Errorf("auth_oauth_lookup_failed: %w", err)
		}
	}

	account, err := provider.accounts.UpsertByEmail(ctx, &Account{
		ID:            uuid.New(),
		Email:         email,
		Name:          name,
		EmailVerified: claims.EmailVerified,
	})
	if err != nil {
		return nil, "", fmt.Errorf("auth_oauth_upsert_failed: %w", err)
	}

	return account, redirect.Sanitize(state.Callback), nil
}
