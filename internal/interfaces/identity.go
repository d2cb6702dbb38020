package interfaces

import (
	"context"

	"github.com/examshaala/examshaala-portal/internal/models"
)

// IdentityProvider is the external identity service boundary. Failures are
// reported as *identity.ProviderError carrying a normalized code.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string) (*models.Identity, error)
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
	AuthenticateInteractive(ctx context.Context, assertion *models.FederatedAssertion) (*models.Identity, error)
	SendResetEmail(ctx context.Context, email string) error
	SetDisplayName(ctx context.Context, identity *models.Identity, name string) error
}

// ConsentFlow drives a federated provider's interactive consent step.
type ConsentFlow interface {
	// ProviderID is the federated provider tag, e.g. "google.com".
	ProviderID() string
	ConsentURL(state, codeChallenge string) string
	Complete(ctx context.Context, code, codeVerifier string) (*models.FederatedAssertion, error)
}

// ConsentStore holds pending consent round trips keyed by state.
type ConsentStore interface {
	Put(ctx context.Context, pc *models.PendingConsent) error
	// Take returns and removes the entry for state. Unknown or expired
	// states yield ErrNotFound.
	Take(ctx context.Context, state string) (*models.PendingConsent, error)
}
