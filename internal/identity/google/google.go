// Package google implements the Google OpenID Connect consent step used for
// federated sign-in.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/examshaala/examshaala-portal/internal/identity"
	"github.com/examshaala/examshaala-portal/internal/models"
)

const issuer = "https://accounts.google.com"

// Flow implements interfaces.ConsentFlow for Google accounts.
type Flow struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// New discovers Google's OIDC endpoints and returns a consent flow.
func New(ctx context.Context, clientID, clientSecret, redirectURL string) (*Flow, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	return newFlow(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}, provider.Verifier(&oidc.Config{ClientID: clientID})), nil
}

func newFlow(cfg *oauth2.Config, verifier *oidc.IDTokenVerifier) *Flow {
	return &Flow{oauthConfig: cfg, verifier: verifier}
}

// ProviderID returns the federated provider tag.
func (f *Flow) ProviderID() string {
	return models.ProviderGoogle
}

// ConsentURL builds the authorization URL with PKCE parameters.
func (f *Flow) ConsentURL(state, codeChallenge string) string {
	return f.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Complete exchanges the authorization code and verifies the returned ID token.
func (f *Flow) Complete(ctx context.Context, code, codeVerifier string) (*models.FederatedAssertion, error) {
	token, err := f.oauthConfig.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, &identity.ProviderError{Code: identity.CodeInvalidIDPResponse, Detail: "token exchange rejected", Err: err}
		}
		return nil, identity.NetworkError(err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, identity.NewError(identity.CodeInvalidIDPResponse, "google did not return id_token")
	}

	idToken, err := f.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, &identity.ProviderError{Code: identity.CodeInvalidIDPResponse, Detail: "id_token verification failed", Err: err}
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, &identity.ProviderError{Code: identity.CodeInvalidIDPResponse, Detail: "id_token claims parse failed", Err: err}
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, identity.NewError(identity.CodeInvalidIDPResponse, "id_token missing required claims")
	}

	return &models.FederatedAssertion{
		ProviderID:    models.ProviderGoogle,
		IDToken:       rawIDToken,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		DisplayName:   claims.Name,
	}, nil
}
