// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

// # Auth Modes

const (
	// AuthModeOAuth delegates credential verification to an OpenID Connect provider.
	AuthModeOAuth = "oauth"

	// AuthModeCredentials enables local email and password sign-in.
	AuthModeCredentials = "credentials"
)

// Debug roles accepted by DEBUG_FORCE_ROLE.
var debugRoles = []string{"admin", "organiser", "team-lead", "volunteer"}

// # Configuration Schema

// Config holds all runtime configuration for the crewdesk server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`
	BaseURL     string `env:"BASE_URL"     envDefault:"http://localhost:8080"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// TrustedProxies are the peers (CIDR or address) whose X-Forwarded-For,
	// X-Real-IP and CF-Connecting-IP headers name the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1/32,::1/128"`

	// Key-Value Cache (Redis). Empty keeps counters in process memory.
	RedisURL string `env:"REDIS_URL"`

	// SessionSecret signs OAuth state tokens.
	SessionSecret string `env:"SESSION_SECRET,required"`

	// Authentication mode
	AuthMode string `env:"AUTH_MODE" envDefault:"oauth"`

	// Local debug identities (non-production, loopback only)
	DebugForceRole string `env:"DEBUG_FORCE_ROLE"`
	DebugEventID   string `env:"DEBUG_EVENT_ID" envDefault:"debug-event"`
	DebugTeamID    string `env:"DEBUG_TEAM_ID"  envDefault:"debug-team"`

	// OpenID Connect provider
	OAuth OAuthConfig

	// CAPTCHA (Cloudflare Turnstile)
	Captcha CaptchaConfig

	// Outbound mail
	SMTP SMTPConfig
}

// OAuthConfig describes the external identity provider.
type OAuthConfig struct {
	ProviderID   string `env:"OAUTH_PROVIDER_ID"`
	ClientID     string `env:"OAUTH_CLIENT_ID"`
	ClientSecret string `env:"OAUTH_CLIENT_SECRET"`
	DiscoveryURL string `env:"OAUTH_DISCOVERY_URL"`
}

// CaptchaConfig enables Turnstile verification when SecretKey is set.
type CaptchaConfig struct {
	SecretKey string `env:"TURNSTILE_SECRET_KEY"`
	SiteKey   string `env:"TURNSTILE_SITE_KEY"`
	Mandatory bool   `env:"CAPTCHA_MANDATORY" envDefault:"true"`
}

// SMTPConfig holds mail transport settings. An empty Host disables sending.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"     envDefault:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	Security string `env:"SMTP_SECURITY" envDefault:"starttls"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.AuthMode {
	case AuthModeOAuth:
		errs = append(errs, c.OAuth.validate()...)
	case AuthModeCredentials:
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeOAuth, AuthModeCredentials, c.AuthMode))
	}

	if c.DebugForceRole != "" && !isDebugRole(c.DebugForceRole) {
		errs = append(errs, fmt.Errorf("DEBUG_FORCE_ROLE must be one of %s", strings.Join(debugRoles, ", ")))
	}

	if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}

	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		errs = append(errs, errors.New("SMTP_PORT must be an integer between 1 and 65535"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

func (o OAuthConfig) validate() []error {
	var errs []error
	if o.ClientID == "" {
		errs = append(errs, errors.New("OAUTH_CLIENT_ID is not set"))
	}
	if o.ProviderID == "" {
		errs = append(errs, errors.New("OAUTH_PROVIDER_ID is not set"))
	}
	if o.ClientSecret == "" {
		errs = append(errs, errors.New("OAUTH_CLIENT_SECRET is not set"))
	}
	if o.DiscoveryURL == "" {
		errs = append(errs, errors.New("OAUTH_DISCOVERY_URL is not set"))
	}
	return errs
}

func isDebugRole(role string) bool {
	for _, r := range debugRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesOAuth reports whether sign-in is delegated to the OAuth provider.
func (c *Config) UsesOAuth() bool {
	return c.AuthMode == AuthModeOAuth
}

// CaptchaEnabled reports whether Turnstile verification is configured.
func (c *Config) CaptchaEnabled() bool {
	return c.Captcha.SecretKey != ""
}

// SMTPEnabled reports whether outbound mail has a transport.
func (c *Config) SMTPEnabled() bool {
	return strings.TrimSpace(c.SMTP.Host) != ""
}

// AllowedOrigin returns the scheme and host of BASE_URL for CORS checks.
func (c *Config) AllowedOrigin() string {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
