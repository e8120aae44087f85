// Package oidc lets an external identity provider stand in for the admin
// password login.
package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/blogdeck/admin/pkg/middleware"
)

// Verifier checks ID tokens issued for the admin client.
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

var _ middleware.Verifier = (*Verifier)(nil)

// NewVerifier discovers issuer and returns a verifier for tokens whose
// audience is clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &Verifier{provider: provider, verifier: verifier}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
