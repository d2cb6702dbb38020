package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/forms"
)

// PageHandler renders the HTML templates under pages/.
type PageHandler struct {
	logger    *common.Logger
	templates *template.Template
	devMode   bool
}

var templateFuncs = template.FuncMap{
	"seconds": func(d time.Duration) int {
		s := int(d.Round(time.Second) / time.Second)
		if s < 1 && d > 0 {
			return 1
		}
		return s
	},
	"millis": func(d time.Duration) int64 {
		return d.Milliseconds()
	},
}

// NewPageHandler creates a new page handler that loads templates from the pages directory.
func NewPageHandler(logger *common.Logger, devMode bool) *PageHandler {
	pagesDir := FindPagesDir()

	templates := template.Must(template.New("").Funcs(templateFuncs).ParseGlob(filepath.Join(pagesDir, "*.html")))
	template.Must(templates.ParseGlob(filepath.Join(pagesDir, "partials", "*.html")))

	return &PageHandler{
		logger:    logger,
		templates: templates,
		devMode:   devMode,
	}
}

// FindPagesDir locates the pages directory.
func FindPagesDir() string {
	dirs := []string{
		"./pages",
		"../pages",
		"../../pages",
		".",
	}

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return "."
}

// RegisterFields echoes the register form back after a failed submission.
type RegisterFields struct {
	FullName     string
	Email        string
	ExamCategory string
}

// AuthPage is the data rendered by auth.html.
type AuthPage struct {
	Page          string
	DevMode       bool
	CSRFToken     string
	Tabs          *forms.Tabs
	LoginEmail    string
	Register      RegisterFields
	GoogleEnabled bool
	Redirect      *forms.Redirect
}

// LoginAlert returns the alert shown on the login panel.
func (p *AuthPage) LoginAlert() *forms.Alert {
	return p.Tabs.Alert(forms.TabLogin)
}

// RegisterAlert returns the alert shown on the register panel.
func (p *AuthPage) RegisterAlert() *forms.Alert {
	return p.Tabs.Alert(forms.TabRegister)
}

// LoginActive reports whether the login panel is visible.
func (p *AuthPage) LoginActive() bool {
	return p.Tabs.Active == forms.TabLogin
}

// render executes templateName with data, writing status first.
func (h *PageHandler) render(w http.ResponseWriter, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		if h.logger != nil {
			h.logger.Error().Str("template", templateName).Str("error", err.Error()).Msg("failed to render page")
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// StaticFileHandler serves static files (CSS, JS, images).
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	pagesDir := FindPagesDir()
	staticDir := filepath.Join(pagesDir, "static")

	path := r.URL.Path[len("/static/"):]
	fullPath := filepath.Join(staticDir, path)

	// Security: prevent directory traversal
	absStaticDir, _ := filepath.Abs(staticDir)
	absFullPath, _ := filepath.Abs(fullPath)
	if len(absFullPath) < len(absStaticDir) || absFullPath[:len(absStaticDir)] != absStaticDir {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, fullPath)
}
