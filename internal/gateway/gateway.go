// Package gateway wraps the identity provider behind register, login,
// federated login and password reset operations, and normalizes provider
// failures into a closed set of reasons with fixed user-facing sentences.
//
// No operation is retried. Every failure is returned once to the caller.
package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/examshaala/examshaala-portal/internal/auth"
	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/identity"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/metrics"
	"github.com/examshaala/examshaala-portal/internal/models"
	"github.com/examshaala/examshaala-portal/internal/ratelimit"
)

// accessDenied is the OAuth error a provider returns when the user declines.
const accessDenied = "access_denied"

// FederatedCallback is what the consent redirect brings back.
type FederatedCallback struct {
	State string
	Code  string
	Error string
}

// Gateway is the session gateway. It is safe for concurrent use.
type Gateway struct {
	provider interfaces.IdentityProvider
	consent  interfaces.ConsentFlow
	pending  interfaces.ConsentStore
	limiter  *ratelimit.Keyed
	metrics  *metrics.Metrics
	logger   *common.Logger
	validate *validator.Validate
}

// Option configures optional gateway collaborators.
type Option func(*Gateway)

// WithConsentFlow enables federated sign-in.
func WithConsentFlow(flow interfaces.ConsentFlow, pending interfaces.ConsentStore) Option {
	return func(g *Gateway) {
		g.consent = flow
		g.pending = pending
	}
}

// WithLoginLimiter throttles login attempts per email address.
func WithLoginLimiter(l *ratelimit.Keyed) Option {
	return func(g *Gateway) { g.limiter = l }
}

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// New creates a gateway over provider.
func New(provider interfaces.IdentityProvider, logger *common.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		provider: provider,
		logger:   logger,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FederatedEnabled reports whether a consent flow is configured.
func (g *Gateway) FederatedEnabled() bool {
	return g.consent != nil && g.pending != nil
}

// Register validates the input, creates the account and sets its display
// name. A display name failure is logged and the account is still returned.
func (g *Gateway) Register(ctx context.Context, in RegisterInput) (*models.Identity, error) {
	in.normalize()
	if verr := checkRegister(g.validate, in); verr != nil {
		return nil, g.fail(verr)
	}

	id, err := g.provider.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return nil, g.fail(providerFailure(OpRegister, err))
	}

	if err := g.provider.SetDisplayName(ctx, id, in.FullName); err != nil {
		g.logger.Warn().Err(err).Str("uid", id.UID).Msg("Failed to set display name after registration")
	}

	g.succeed(OpRegister, id)
	return id, nil
}

// Login validates the input and authenticates with email and password.
func (g *Gateway) Login(ctx context.Context, in LoginInput) (*models.Identity, error) {
	in.normalize()
	if verr := checkLogin(g.validate, in); verr != nil {
		return nil, g.fail(verr)
	}

	if g.limiter != nil && !g.limiter.Allow(strings.ToLower(in.Email)) {
		return nil, g.fail(&Error{Op: OpLogin, Reason: ReasonTooManyAttempts, Kind: KindCredential})
	}

	id, err := g.provider.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, g.fail(providerFailure(OpLogin, err))
	}

	g.succeed(OpLogin, id)
	return id, nil
}

// BeginFederatedLogin records a PKCE verifier under a fresh state and returns
// the provider consent URL the browser should be sent to.
func (g *Gateway) BeginFederatedLogin(ctx context.Context) (consentURL, state string, err error) {
	if !g.FederatedEnabled() {
		return "", "", g.fail(&Error{Op: OpFederated, Reason: ReasonUnknown, Kind: KindAvailability, Err: ErrFederatedDisabled})
	}

	verifier, err := auth.GenerateVerifier()
	if err != nil {
		return "", "", g.fail(&Error{Op: OpFederated, Reason: ReasonUnknown, Kind: KindCredential, Err: err})
	}
	state, err = auth.GenerateState()
	if err != nil {
		return "", "", g.fail(&Error{Op: OpFederated, Reason: ReasonUnknown, Kind: KindCredential, Err: err})
	}

	pc := &models.PendingConsent{State: state, Verifier: verifier, ProviderID: g.consent.ProviderID()}
	if err := g.pending.Put(ctx, pc); err != nil {
		return "", "", g.fail(&Error{Op: OpFederated, Reason: ReasonNetworkUnavailable, Kind: KindAvailability, Err: err})
	}

	return g.consent.ConsentURL(state, auth.GenerateCodeChallenge(verifier)), state, nil
}

// CompleteFederatedLogin finishes a consent round trip. A declined consent is
// InteractionCancelled; an unknown or expired state is InteractionBlocked.
func (g *Gateway) CompleteFederatedLogin(ctx context.Context, cb FederatedCallback) (*models.Identity, error) {
	if !g.FederatedEnabled() {
		return nil, g.fail(&Error{Op: OpFederated, Reason: ReasonUnknown, Kind: KindAvailability, Err: ErrFederatedDisabled})
	}

	// Consume the state first so a declined or replayed callback cannot reuse it.
	pc, err := g.pending.Take(ctx, cb.State)
	if cb.Error == accessDenied {
		return nil, g.fail(providerFailure(OpFederated, identity.NewError(identity.CodeCancelled, cb.Error)))
	}
	if errors.Is(err, interfaces.ErrNotFound) || cb.State == "" {
		return nil, g.fail(providerFailure(OpFederated, identity.NewError(identity.CodePopupBlocked, "unknown or expired consent state")))
	}
	if err != nil {
		return nil, g.fail(&Error{Op: OpFederated, Reason: ReasonNetworkUnavailable, Kind: KindAvailability, Err: err})
	}
	if cb.Error != "" || cb.Code == "" {
		return nil, g.fail(providerFailure(OpFederated, identity.NewError(identity.CodeInvalidIDPResponse, cb.Error)))
	}

	assertion, err := g.consent.Complete(ctx, cb.Code, pc.Verifier)
	if err != nil {
		return nil, g.fail(providerFailure(OpFederated, err))
	}

	id, err := g.provider.AuthenticateInteractive(ctx, assertion)
	if err != nil {
		return nil, g.fail(providerFailure(OpFederated, err))
	}

	g.succeed(OpFederated, id)
	return id, nil
}

// RequestPasswordReset asks the provider to send a reset email.
func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if verr := checkReset(g.validate, email); verr != nil {
		return g.fail(verr)
	}

	if err := g.provider.SendResetEmail(ctx, email); err != nil {
		return g.fail(providerFailure(OpReset, err))
	}

	g.metrics.AuthOutcome(string(OpReset), "ok")
	g.logger.Info().Msg("Password reset email requested")
	return nil
}

func (g *Gateway) succeed(op Op, id *models.Identity) {
	g.metrics.AuthOutcome(string(op), "ok")
	g.logger.Info().Str("op", string(op)).Str("uid", id.UID).Str("provider", id.Provider).Msg("Authentication succeeded")
}

// fail records and logs e, then returns it as an error.
func (g *Gateway) fail(e *Error) error {
	g.metrics.AuthOutcome(string(e.Op), string(e.Reason))

	ev := g.logger.Warn().Str("op", string(e.Op)).Str("reason", string(e.Reason)).Str("kind", string(e.Kind))
	if code := identity.CodeOf(e.Err); code != "" {
		ev = ev.Str("provider_code", string(code))
	}
	if e.Err != nil {
		ev = ev.Err(e.Err)
	}
	ev.Msg("Authentication failed")
	return e
}
