package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	a := s.app

	// UI page routes (HTML templates)
	mux.HandleFunc("GET /{$}", a.AuthHandler.ServeAuthPage)
	mux.HandleFunc("GET /auth", a.AuthHandler.ServeAuthPage)
	mux.Handle("GET /dashboard", a.DashboardHandler)

	// Form posts and the federated consent round trip
	mux.HandleFunc("POST /auth/login", a.AuthHandler.HandleLogin)
	mux.HandleFunc("POST /auth/register", a.AuthHandler.HandleRegister)
	mux.HandleFunc("POST /auth/reset", a.AuthHandler.HandleReset)
	mux.HandleFunc("POST /auth/logout", a.AuthHandler.HandleLogout)
	mux.HandleFunc("GET /auth/google", a.AuthHandler.HandleGoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", a.AuthHandler.HandleGoogleCallback)

	// Static files (CSS, JS, images)
	mux.HandleFunc("GET /static/", a.PageHandler.StaticFileHandler)

	// API routes
	mux.Handle("/api/health", a.HealthHandler)
	mux.Handle("/api/version", a.VersionHandler)
	mux.Handle("GET /metrics", a.Metrics.Handler())

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}

// routeLabel maps a request to its registered pattern so metric labels stay
// bounded.
func (s *Server) routeLabel(r *http.Request) string {
	if _, pattern := s.router.Handler(r); pattern != "" {
		return pattern
	}
	return "unmatched"
}
