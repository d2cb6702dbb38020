package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/metrics"
	"github.com/examshaala/examshaala-portal/internal/models"
)

// CookieName is the session cookie set after a successful sign-in.
const CookieName = "examshaala_session"

// Observer is notified when a browser signs in or out.
type Observer interface {
	SignedIn(s *models.Session)
	SignedOut(s *models.Session)
}

// LogObserver records auth-state changes in the log and metrics only.
type LogObserver struct {
	logger  *common.Logger
	metrics *metrics.Metrics
}

// NewLogObserver creates an observer writing to logger and m. m may be nil.
func NewLogObserver(logger *common.Logger, m *metrics.Metrics) *LogObserver {
	return &LogObserver{logger: logger, metrics: m}
}

// SignedIn logs a sign-in.
func (o *LogObserver) SignedIn(s *models.Session) {
	o.logger.Info().Str("uid", s.UserID).Str("provider", s.Provider).Msg("user signed in")
	o.metrics.SessionEvent("sign_in")
}

// SignedOut logs a sign-out.
func (o *LogObserver) SignedOut(s *models.Session) {
	o.logger.Info().Str("uid", s.UserID).Msg("user signed out")
	o.metrics.SessionEvent("sign_out")
}

// Manager ties the signed cookie to the server-side registry.
type Manager struct {
	issuer   *Issuer
	store    Store
	ttl      time.Duration
	secure   bool
	observer Observer
	now      func() time.Time
}

// NewManager creates a session manager. secure marks cookies Secure, which
// should be set whenever the portal is served over https.
func NewManager(issuer *Issuer, store Store, ttl time.Duration, secure bool, observer Observer) *Manager {
	return &Manager{
		issuer:   issuer,
		store:    store,
		ttl:      ttl,
		secure:   secure,
		observer: observer,
		now:      time.Now,
	}
}

// Start registers a session for id and sets the cookie on w.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, id *models.Identity) (*models.Session, error) {
	now := m.now().UTC()
	s := &models.Session{
		ID:        uuid.NewString(),
		UserID:    id.UID,
		Email:     id.Email,
		Provider:  id.Provider,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	token, err := m.issuer.Issue(s)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	if m.observer != nil {
		m.observer.SignedIn(s)
	}
	return s, nil
}

// Current returns the session behind r's cookie, or ErrSessionNotFound.
func (m *Manager) Current(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrSessionNotFound
	}

	claims, err := m.issuer.Parse(cookie.Value)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	s, err := m.store.Get(r.Context(), claims.ID)
	if err != nil {
		return nil, err
	}
	if s.UserID != claims.Subject || m.now().After(claims.expiry()) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End revokes the session behind r, if any, and clears the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	s, err := m.Current(r)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if m.observer != nil {
		m.observer.SignedOut(s)
	}
	return nil
}
