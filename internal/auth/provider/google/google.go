// Package google verifies Google ID tokens (signature, issuer, audience,
// expiry) and returns the normalized identity facts the auth service needs.
// It makes no auth decisions and never touches local accounts.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const issuerURL = "https://accounts.google.com"

// Identity holds the verified assertion's subject and profile claims.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// Provider verifies Google ID tokens for a single OAuth client ID.
type Provider struct {
	verifier *oidc.IDTokenVerifier
}

// New discovers Google's OIDC configuration and returns a Provider that
// accepts ID tokens issued to clientID.
func New(ctx context.Context, clientID string) (*Provider, error) {
	if clientID == "" {
		return nil, errors.New("google oidc config missing client id")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	return &Provider{
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// VerifyIDToken checks the raw ID token and extracts subject, email, and name.
// The email must be present and marked verified by Google, since it becomes
// the local account key.
func (p *Provider) VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error) {
	if rawIDToken == "" {
		return nil, errors.New("google id_token is required")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("google id_token missing required claims")
	}
	if !claims.EmailVerified {
		return nil, errors.New("google account email is not verified")
	}

	return &Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}
