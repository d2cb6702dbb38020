package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/forms"
	"github.com/examshaala/examshaala-portal/internal/gateway"
	"github.com/examshaala/examshaala-portal/internal/models"
	"github.com/examshaala/examshaala-portal/internal/profile"
	"github.com/examshaala/examshaala-portal/internal/session"
)

// AuthForms is the set of forms served by the auth page.
type AuthForms struct {
	Login     *forms.Form
	Register  *forms.Form
	Federated *forms.Form
	Reset     *forms.Form
}

// AuthHandler serves the auth page and its form posts.
type AuthHandler struct {
	logger   *common.Logger
	pages    *PageHandler
	gateway  *gateway.Gateway
	forms    AuthForms
	sessions *session.Manager
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(logger *common.Logger, pages *PageHandler, gw *gateway.Gateway, f AuthForms, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		pages:    pages,
		gateway:  gw,
		forms:    f,
		sessions: sessions,
	}
}

func (h *AuthHandler) newPage(r *http.Request, tab forms.Tab) *AuthPage {
	return &AuthPage{
		Page:          "auth",
		DevMode:       h.pages.devMode,
		CSRFToken:     CSRFToken(r),
		Tabs:          forms.NewTabs(tab),
		GoogleEnabled: h.gateway.FederatedEnabled(),
	}
}

// ServeAuthPage handles GET / and GET /auth?tab=login|register.
// Signed-in browsers go straight to the dashboard.
func (h *AuthHandler) ServeAuthPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Current(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	q := r.URL.Query()
	page := h.newPage(r, forms.ParseTab(q.Get("tab")))
	page.LoginEmail = q.Get("email")
	h.pages.render(w, http.StatusOK, "auth.html", page)
}

// HandleLogin handles POST /auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	in := gateway.LoginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	out, err := h.forms.Login.Submit(r.Context(), ClientKey(r), forms.Operation{
		Run: func(ctx context.Context) (*models.Identity, error) {
			return h.gateway.Login(ctx, in)
		},
	})

	page := h.newPage(r, forms.TabLogin)
	page.LoginEmail = strings.TrimSpace(in.Email)
	if errors.Is(err, forms.ErrSubmissionInFlight) {
		h.pages.render(w, http.StatusConflict, "auth.html", page)
		return
	}

	h.finishSignIn(w, r, h.forms.Login, gateway.OpLogin, out, page)
}

// HandleRegister handles POST /auth/register. A new account is not signed
// in; the browser is sent to the login tab with the email prefilled.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	in := gateway.RegisterInput{
		FullName:     r.PostFormValue("full_name"),
		Email:        r.PostFormValue("email"),
		Password:     r.PostFormValue("password"),
		ExamCategory: r.PostFormValue("exam_category"),
	}
	email := strings.TrimSpace(in.Email)
	out, err := h.forms.Register.Submit(r.Context(), ClientKey(r), forms.Operation{
		Run: func(ctx context.Context) (*models.Identity, error) {
			return h.gateway.Register(ctx, in)
		},
		Seed:    profile.Seed{FullName: strings.TrimSpace(in.FullName), ExamCategory: strings.TrimSpace(in.ExamCategory)},
		Prefill: email,
	})

	page := h.newPage(r, forms.TabRegister)
	page.Register = RegisterFields{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        email,
		ExamCategory: strings.TrimSpace(in.ExamCategory),
	}
	if errors.Is(err, forms.ErrSubmissionInFlight) {
		h.pages.render(w, http.StatusConflict, "auth.html", page)
		return
	}

	page.Tabs.Show(forms.TabRegister, out.Alert)
	if out.Succeeded() && out.Redirect != nil {
		page.Register = RegisterFields{}
		page.Redirect = &forms.Redirect{
			Target: withQuery(out.Redirect.Target, "email", out.Prefill),
			After:  out.Redirect.After,
		}
	}
	h.pages.render(w, http.StatusOK, "auth.html", page)
}

// HandleReset handles POST /auth/reset.
func (h *AuthHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("email")
	out, err := h.forms.Reset.Submit(r.Context(), ClientKey(r), forms.Operation{
		Run: func(ctx context.Context) (*models.Identity, error) {
			return nil, h.gateway.RequestPasswordReset(ctx, email)
		},
	})

	page := h.newPage(r, forms.TabLogin)
	page.LoginEmail = strings.TrimSpace(email)
	if errors.Is(err, forms.ErrSubmissionInFlight) {
		h.pages.render(w, http.StatusConflict, "auth.html", page)
		return
	}

	page.Tabs.Show(forms.TabLogin, out.Alert)
	h.pages.render(w, http.StatusOK, "auth.html", page)
}

// HandleGoogleLogin handles GET /auth/google by redirecting to the consent
// screen.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	consentURL, _, err := h.gateway.BeginFederatedLogin(r.Context())
	if err != nil {
		page := h.newPage(r, forms.TabLogin)
		page.Tabs.Show(forms.TabLogin, forms.Alert{
			Message: gateway.MessageOf(gateway.OpFederated, err),
			Kind:    forms.AlertError,
			TTL:     h.forms.Federated.AlertTTL,
		})
		h.pages.render(w, http.StatusOK, "auth.html", page)
		return
	}

	http.Redirect(w, r, consentURL, http.StatusFound)
}

// HandleGoogleCallback handles GET /auth/google/callback.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cb := gateway.FederatedCallback{
		State: q.Get("state"),
		Code:  q.Get("code"),
		Error: q.Get("error"),
	}
	out, err := h.forms.Federated.Submit(r.Context(), ClientKey(r), forms.Operation{
		Run: func(ctx context.Context) (*models.Identity, error) {
			return h.gateway.CompleteFederatedLogin(ctx, cb)
		},
	})

	page := h.newPage(r, forms.TabLogin)
	if errors.Is(err, forms.ErrSubmissionInFlight) {
		h.pages.render(w, http.StatusConflict, "auth.html", page)
		return
	}

	h.finishSignIn(w, r, h.forms.Federated, gateway.OpFederated, out, page)
}

// finishSignIn starts a session for a successful sign-in and renders the
// outcome on the login panel.
func (h *AuthHandler) finishSignIn(w http.ResponseWriter, r *http.Request, form *forms.Form, op gateway.Op, out forms.Outcome, page *AuthPage) {
	if out.Succeeded() {
		if _, err := h.sessions.Start(r.Context(), w, out.Identity); err != nil {
			h.logger.Error().Str("op", string(op)).Err(err).Msg("failed to start session")
			out.Alert = forms.Alert{Message: gateway.MessageOf(op, err), Kind: forms.AlertError, TTL: form.AlertTTL}
			out.Redirect = nil
		}
		page.Redirect = out.Redirect
	}

	page.Tabs.Show(forms.TabLogin, out.Alert)
	h.pages.render(w, http.StatusOK, "auth.html", page)
}

// HandleLogout handles POST /auth/logout: revokes the session, clears the
// cookie and returns to the auth page.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), w, r); err != nil {
		h.logger.Warn().Err(err).Msg("failed to revoke session")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// withQuery sets key=value on target's query string.
func withQuery(target, key, value string) string {
	if value == "" {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
