// Package oidc verifies delegated identity tokens against a provider's JWK
// Set and maps their claims to a profile the engine can consume. The engine
// itself never talks to the provider; hosts run this validator in their
// callback handler and hand the resulting profile to SigninWithProfile.
package oidc

import (
	stderrors "errors"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/bitmast/sessiongate"
	"github.com/golang-jwt/jwt/v5"
)

// Config configures a provider validator.
type Config struct {
	// Name identifies the provider, e.g. "google". Recorded as the auth
	// type on provisioned email records.
	Name string

	// JWKSetURL is the provider's JWK Set endpoint.
	JWKSetURL string

	// Issuer and Audience are enforced on every token when set.
	Issuer   string
	Audience string

	// RefreshInterval for the background JWKS refresh (default: 1h).
	RefreshInterval time.Duration
}

// Validator checks provider-issued identity tokens.
type Validator struct {
	config Config
	jwks   *keyfunc.JWKS
}

// New creates a Validator, fetching the provider's JWK Set eagerly so a bad
// URL fails at construction rather than on the first signin.
func New(cfg Config) (*Validator, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("oidc: provider name is required")
	}
	if cfg.JWKSetURL == "" {
		return nil, fmt.Errorf("oidc: JWK Set URL is required")
	}

	refreshInterval := cfg.RefreshInterval
	if refreshInterval == 0 {
		refreshInterval = time.Hour
	}

	jwks, err := keyfunc.Get(cfg.JWKSetURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWK Set: %s", err)
		},
		RefreshInterval:   refreshInterval,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("oidc: failed to get JWK Set: %w", err)
	}

	return &Validator{
		config: cfg,
		jwks:   jwks,
	}, nil
}

// identityClaims is the subset of standard OIDC claims the engine cares
// about.
type identityClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
}

// Validate verifies an identity token and maps it to a profile. Tokens
// without a verified email are rejected; an unverified address is not proof
// of identity.
func (v *Validator) Validate(tokenString string) (*sessiongate.Profile, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if v.config.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &identityClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		return nil, v.normalizeError(err)
	}

	claims, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid {
		return nil, sessiongate.ErrTokenMalformed
	}

	if claims.Email == "" || !claims.EmailVerified {
		return nil, sessiongate.ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"provider": v.config.Name,
			"cause":    "missing or unverified email claim",
		})
	}

	return &sessiongate.Profile{
		Email:       claims.Email,
		DisplayName: claims.Name,
		Provider:    v.config.Name,
	}, nil
}

// Close stops the background JWKS refresh.
func (v *Validator) Close() {
	v.jwks.EndBackground()
}

func (v *Validator) normalizeError(err error) error {
	clone := sessiongate.ErrTokenMalformed.Clone()
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		clone = sessiongate.ErrTokenExpired.Clone()
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"provider": v.config.Name,
		"cause":    err.Error(),
	})
}
