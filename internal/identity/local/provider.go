// Package local is a development identity provider that keeps bcrypt-hashed
// credentials in the portal's own account store.
package local

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/identity"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/models"
)

const minPasswordLength = 6

// Provider implements interfaces.IdentityProvider against an AccountStore.
type Provider struct {
	accounts interfaces.AccountStore
	logger   *common.Logger
	cost     int
}

// NewProvider creates a local provider. Password reset emails are logged
// rather than delivered.
func NewProvider(accounts interfaces.AccountStore, logger *common.Logger) *Provider {
	return &Provider{accounts: accounts, logger: logger, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (p *Provider) WithCost(cost int) *Provider {
	p.cost = cost
	return p
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", identity.NewError(identity.CodeInvalidEmail, email)
	}
	return email, nil
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*models.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, identity.NewError(identity.CodeWeakPassword, "password too short")
	}

	if _, err := p.accounts.FindAccountByEmail(ctx, email); err == nil {
		return nil, identity.NewError(identity.CodeEmailExists, email)
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, identity.NewError(identity.CodeInternal, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, identity.NewError(identity.CodeInternal, err.Error())
	}

	acct := &models.Account{
		UID:          uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     models.ProviderPassword,
		CreatedAt:    time.Now(),
	}
	if err := p.accounts.InsertAccount(ctx, acct); err != nil {
		if errors.Is(err, interfaces.ErrAlreadyExists) {
			return nil, identity.NewError(identity.CodeEmailExists, email)
		}
		return nil, identity.NewError(identity.CodeInternal, err.Error())
	}
	return p.identityFor(acct), nil
}

func (p *Provider) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	acct, err := p.accounts.FindAccountByEmail(ctx, email)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, identity.NewError(identity.CodeUserNotFound, email)
	}
	if err != nil {
		return nil, identity.NewError(identity.CodeInternal, err.Error())
	}
	if acct.PasswordHash == "" {
		// Federated-only account.
		return nil, identity.NewError(identity.CodeInvalidCredential, "no password set")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, identity.NewError(identity.CodeWrongPassword, email)
	}
	return p.identityFor(acct), nil
}

// AuthenticateInteractive links a federated assertion to a local account,
// creating one on first use.
func (p *Provider) AuthenticateInteractive(ctx context.Context, assertion *models.FederatedAssertion) (*models.Identity, error) {
	if assertion == nil || assertion.Email == "" {
		return nil, identity.NewError(identity.CodeInvalidIDPResponse, "assertion has no email")
	}
	email := strings.ToLower(assertion.Email)

	acct, err := p.accounts.FindAccountByEmail(ctx, email)
	if errors.Is(err, interfaces.ErrNotFound) {
		acct = &models.Account{
			UID:         uuid.New().String(),
			Email:       email,
			DisplayName: assertion.DisplayName,
			Provider:    assertion.ProviderID,
			CreatedAt:   time.Now(),
		}
		if err := p.accounts.InsertAccount(ctx, acct); err != nil {
			return nil, identity.NewError(identity.CodeInternal, err.Error())
		}
	} else if err != nil {
		return nil, identity.NewError(identity.CodeInternal, err.Error())
	}

	id := p.identityFor(acct)
	id.Provider = assertion.ProviderID
	if id.DisplayName == "" {
		id.DisplayName = assertion.DisplayName
	}
	return id, nil
}

func (p *Provider) SendResetEmail(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if _, err := p.accounts.FindAccountByEmail(ctx, email); errors.Is(err, interfaces.ErrNotFound) {
		return identity.NewError(identity.CodeUserNotFound, email)
	} else if err != nil {
		return identity.NewError(identity.CodeInternal, err.Error())
	}
	p.logger.Info().Str("email", email).Msg("Password reset requested (local provider, email not sent)")
	return nil
}

func (p *Provider) SetDisplayName(ctx context.Context, id *models.Identity, name string) error {
	if id == nil {
		return identity.NewError(identity.CodeInvalidCredential, "no identity")
	}
	acct, err := p.accounts.GetAccount(ctx, id.UID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return identity.NewError(identity.CodeUserNotFound, id.UID)
	}
	if err != nil {
		return identity.NewError(identity.CodeInternal, err.Error())
	}
	acct.DisplayName = name
	if err := p.accounts.UpdateAccount(ctx, acct); err != nil {
		return identity.NewError(identity.CodeInternal, err.Error())
	}
	id.DisplayName = name
	return nil
}

func (p *Provider) identityFor(acct *models.Account) *models.Identity {
	return &models.Identity{
		UID:         acct.UID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		Provider:    acct.Provider,
		IDToken:     uuid.New().String(),
	}
}
