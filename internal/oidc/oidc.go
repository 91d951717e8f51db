// Package oidc accepts ID tokens from an external OpenID Connect provider
// (hospital or university SSO) next to locally issued access tokens.
package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/carolinavmo/PMR-atlas/pkg/middleware"
)

var (
	ErrNoEmail         = errors.New("id token has no email claim")
	ErrEmailUnverified = errors.New("id token email is not verified")
)

type Verifier struct {
	issuer   string
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider at issuer and verifies tokens for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{
		issuer:   issuer,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// newWithKeySet skips discovery; keys are fixed.
func newWithKeySet(issuer, clientID string, keys oidc.KeySet) *Verifier {
	return &Verifier{
		issuer:   issuer,
		verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID}),
	}
}

func (v *Verifier) Issuer() string { return v.issuer }

// Verify checks signature, issuer, audience and expiry, then requires a
// verified email: accounts are matched by email when first seen.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var c struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
	}
	if err := idToken.Claims(&c); err != nil {
		return nil, fmt.Errorf("decode id token claims: %w", err)
	}
	if c.Email == "" {
		return nil, ErrNoEmail
	}
	if c.EmailVerified != nil && !*c.EmailVerified {
		return nil, ErrEmailUnverified
	}
	return idToken, nil
}
