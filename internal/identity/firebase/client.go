// Package firebase implements the identity provider boundary on top of the
// Firebase Identity Toolkit v1 REST API.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/examshaala/examshaala-portal/internal/config"
	"github.com/examshaala/examshaala-portal/internal/identity"
	"github.com/examshaala/examshaala-portal/internal/models"
)

// Client talks to the Identity Toolkit REST API.
type Client struct {
	baseURL    string
	apiKey     string
	requestURI string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a client for the given API base URL and web API key.
// requestURI is sent with federated sign-ins and must be an authorized domain.
func NewClient(baseURL, apiKey, requestURI string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		requestURI: requestURI,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    newBreaker("firebase-identity"),
	}
}

// newBreaker trips after repeated transport or 5xx failures. Provider
// rejections such as EMAIL_EXISTS do not count against it.
func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || identity.CodeOf(err) != identity.CodeNetworkFailed
		},
	})
}

// BreakerState reports the circuit breaker state, for health checks.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// authResponse is the common shape of sign-up/sign-in responses.
type authResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
	ProviderID  string `json:"providerId"`
}

func (r *authResponse) identity(provider string) *models.Identity {
	if r.ProviderID != "" {
		provider = r.ProviderID
	}
	return &models.Identity{
		UID:         r.LocalID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Provider:    provider,
		IDToken:     r.IDToken,
	}
}

// CreateAccount registers an email/password account.
// POST accounts:signUp
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*models.Identity, error) {
	var resp authResponse
	err := c.call(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.identity(models.ProviderPassword), nil
}

// Authenticate signs in with email and password.
// POST accounts:signInWithPassword
func (c *Client) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	var resp authResponse
	err := c.call(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.identity(models.ProviderPassword), nil
}

// AuthenticateInteractive exchanges a verified federated ID token for a
// Firebase identity.
// POST accounts:signInWithIdp
func (c *Client) AuthenticateInteractive(ctx context.Context, assertion *models.FederatedAssertion) (*models.Identity, error) {
	if assertion == nil || assertion.IDToken == "" {
		return nil, identity.NewError(identity.CodeInvalidIDPResponse, "missing id token")
	}

	postBody := url.Values{}
	postBody.Set("id_token", assertion.IDToken)
	postBody.Set("providerId", assertion.ProviderID)

	var resp authResponse
	err := c.call(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          c.requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	id := resp.identity(assertion.ProviderID)
	if id.DisplayName == "" {
		id.DisplayName = assertion.DisplayName
	}
	if id.Email == "" {
		id.Email = assertion.Email
	}
	return id, nil
}

// SendResetEmail asks the provider to deliver a password reset email.
// POST accounts:sendOobCode
func (c *Client) SendResetEmail(ctx context.Context, email string) error {
	return c.call(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

// SetDisplayName updates the display name of a signed-in identity.
// POST accounts:update
func (c *Client) SetDisplayName(ctx context.Context, id *models.Identity, name string) error {
	if id == nil || id.IDToken == "" {
		return identity.NewError(identity.CodeInvalidCredential, "missing id token")
	}
	if err := c.call(ctx, "accounts:update", map[string]any{
		"idToken":           id.IDToken,
		"displayName":       name,
		"returnSecureToken": false,
	}, nil); err != nil {
		return err
	}
	id.DisplayName = name
	return nil
}

// call POSTs a JSON body to the named endpoint and decodes the response into out.
func (c *Client) call(ctx context.Context, endpoint string, body any, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	u := c.baseURL + "/" + endpoint + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", config.UserAgent())

	respBody, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return identity.NetworkError(err)
	}
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, identity.NetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, identity.NetworkError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}
	return body, nil
}
