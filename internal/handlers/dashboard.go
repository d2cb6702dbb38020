package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/config"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/models"
	"github.com/examshaala/examshaala-portal/internal/session"
)

// ProfileReader loads the profile shown on the dashboard.
type ProfileReader interface {
	Profile(ctx context.Context, uid string) (*models.UserProfile, error)
}

// DashboardPage is the data rendered by dashboard.html.
type DashboardPage struct {
	Page      string
	DevMode   bool
	CSRFToken string
	Profile   *models.UserProfile
	// ProfilePending is set when the profile sync has not landed yet.
	ProfilePending bool
	PortalVersion  string
}

// DashboardHandler serves the signed-in landing page.
type DashboardHandler struct {
	logger   *common.Logger
	pages    *PageHandler
	sessions *session.Manager
	profiles ProfileReader
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(logger *common.Logger, pages *PageHandler, sessions *session.Manager, profiles ProfileReader) *DashboardHandler {
	return &DashboardHandler{
		logger:   logger,
		pages:    pages,
		sessions: sessions,
		profiles: profiles,
	}
}

// ServeHTTP renders the dashboard page.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Current(r)
	if err != nil {
		http.Redirect(w, r, "/auth?tab=login", http.StatusFound)
		return
	}

	data := DashboardPage{
		Page:          "dashboard",
		DevMode:       h.pages.devMode,
		CSRFToken:     CSRFToken(r),
		PortalVersion: config.GetVersion(),
	}

	p, err := h.profiles.Profile(r.Context(), s.UserID)
	switch {
	case err == nil:
		data.Profile = p
	case errors.Is(err, interfaces.ErrNotFound):
		data.Profile = placeholderProfile(s)
		data.ProfilePending = true
	default:
		h.logger.Warn().Str("uid", s.UserID).Err(err).Msg("failed to load profile for dashboard")
		data.Profile = placeholderProfile(s)
		data.ProfilePending = true
	}

	h.pages.render(w, http.StatusOK, "dashboard.html", data)
}

// placeholderProfile stands in while the first profile write is in flight.
func placeholderProfile(s *models.Session) *models.UserProfile {
	return &models.UserProfile{
		ID:           s.UserID,
		FullName:     models.DefaultFullName,
		Email:        s.Email,
		ExamCategory: models.DefaultExamCategory,
		Role:         models.RoleStudent,
		AuthProvider: s.Provider,
		Platform:     models.PlatformName,
	}
}
