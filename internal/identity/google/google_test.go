package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/examshaala/examshaala-portal/internal/identity"
	"github.com/examshaala/examshaala-portal/internal/models"
)

func testFlow(tokenURL string) *Flow {
	cfg := &oauth2.Config{
		ClientID:     "client-1",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:4241/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: tokenURL,
		},
		Scopes: []string{oidc.ScopeOpenID, "email"},
	}
	verifier := oidc.NewVerifier("https://accounts.example.com", &oidc.StaticKeySet{}, &oidc.Config{ClientID: "client-1"})
	return newFlow(cfg, verifier)
}

func TestConsentURL(t *testing.T) {
	f := testFlow("https://accounts.example.com/token")
	u, err := url.Parse(f.ConsentURL("state-1", "challenge-1"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "challenge-1", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, models.ProviderGoogle, f.ProviderID())
}

func TestComplete_MissingIDToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("code_verifier") != "verifier-1" {
			t.Errorf("expected code_verifier, got %q", r.PostForm.Get("code_verifier"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "at",
			"token_type":   "Bearer",
		})
	}))
	defer srv.Close()

	_, err := testFlow(srv.URL).Complete(context.Background(), "code-1", "verifier-1")
	assert.Equal(t, identity.CodeInvalidIDPResponse, identity.CodeOf(err))
}

func TestComplete_RejectedExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	_, err := testFlow(srv.URL).Complete(context.Background(), "code-1", "verifier-1")
	assert.Equal(t, identity.CodeInvalidIDPResponse, identity.CodeOf(err))
}

func TestComplete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tokenURL := srv.URL
	srv.Close()

	_, err := testFlow(tokenURL).Complete(context.Background(), "code-1", "verifier-1")
	assert.Equal(t, identity.CodeNetworkFailed, identity.CodeOf(err))
}

func TestNew_MissingConfig(t *testing.T) {
	_, err := New(context.Background(), "", "", "")
	assert.Error(t, err)
}
