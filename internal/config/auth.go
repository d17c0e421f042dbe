package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvAuthJWTSecret         = "RHYTHM_AUTH_JWT_SECRET"
	EnvAuthTokenTTL          = "RHYTHM_AUTH_TOKEN_TTL"
	EnvAuthIssuer            = "RHYTHM_AUTH_ISSUER"
	EnvAuthAllowRegistration = "RHYTHM_AUTH_ALLOW_REGISTRATION"
	EnvAuthOIDCIssuer        = "RHYTHM_AUTH_OIDC_ISSUER"
	EnvAuthOIDCClientID      = "RHYTHM_AUTH_OIDC_CLIENT_ID"
)

const minSecretLength = 32

// AuthConfig holds token signing and identity provider settings.
type AuthConfig struct {
	JWTSecret         string `toml:"jwt_secret"`
	TokenTTL          string `toml:"token_ttl"`
	Issuer            string `toml:"issuer"`
	AllowRegistration *bool  `toml:"allow_registration"`
	OIDCIssuer        string `toml:"oidc_issuer"`
	OIDCClientID      string `toml:"oidc_client_id"`
}

// TokenTTLDuration returns TokenTTL as a time.Duration.
func (c *AuthConfig) TokenTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TokenTTL)
	return d
}

// RegistrationEnabled reports whether self-service registration is open.
func (c *AuthConfig) RegistrationEnabled() bool {
	return c.AllowRegistration == nil || *c.AllowRegistration
}

// OIDCEnabled reports whether bearer tokens from an external issuer are accepted.
func (c *AuthConfig) OIDCEnabled() bool {
	return c.OIDCIssuer != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuthConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.JWTSecret != "" {
		c.JWTSecret = overlay.JWTSecret
	}
	if overlay.TokenTTL != "" {
		c.TokenTTL = overlay.TokenTTL
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.AllowRegistration != nil {
		c.AllowRegistration = overlay.AllowRegistration
	}
	if overlay.OIDCIssuer != "" {
		c.OIDCIssuer = overlay.OIDCIssuer
	}
	if overlay.OIDCClientID != "" {
		c.OIDCClientID = overlay.OIDCClientID
	}
}

func (c *AuthConfig) loadDefaults() {
	if c.TokenTTL == "" {
		c.TokenTTL = "60m"
	}
	if c.Issuer == "" {
		c.Issuer = "rhythmrisk"
	}
}

func (c *AuthConfig) loadEnv() {
	if v := os.Getenv(EnvAuthJWTSecret); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv(EnvAuthTokenTTL); v != "" {
		c.TokenTTL = v
	}
	if v := os.Getenv(EnvAuthIssuer); v != "" {
		c.Issuer = v
	}
	if v := os.Getenv(EnvAuthAllowRegistration); v != "" {
		if allow, err := strconv.ParseBool(v); err == nil {
			c.AllowRegistration = &allow
		}
	}
	if v := os.Getenv(EnvAuthOIDCIssuer); v != "" {
		c.OIDCIssuer = v
	}
	if v := os.Getenv(EnvAuthOIDCClientID); v != "" {
		c.OIDCClientID = v
	}
}

func (c *AuthConfig) validate() error {
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("jwt_secret must be at least %d characters", minSecretLength)
	}
	if d, err := time.ParseDuration(c.TokenTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid token_ttl: %q", c.TokenTTL)
	}
	if c.OIDCIssuer != "" && c.OIDCClientID == "" {
		return fmt.Errorf("oidc_client_id required when oidc_issuer is set")
	}
	return nil
}
