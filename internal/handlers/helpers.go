package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
)

// CSRFCookieName is the double-submit cookie checked on form posts.
const CSRFCookieName = "_csrf"

// CSRFFieldName is the hidden form field carrying the CSRF token.
const CSRFFieldName = "_csrf"

type csrfKey struct{}

// WithCSRFToken returns a context carrying the request's CSRF token so pages
// can render it before the browser has stored the cookie.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfKey{}, token)
}

// CSRFToken returns the token for r, from the context or the cookie.
func CSRFToken(r *http.Request) string {
	if token, ok := r.Context().Value(csrfKey{}).(string); ok && token != "" {
		return token
	}
	if cookie, err := r.Cookie(CSRFCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// ClientKey identifies the submitting browser for the per-form in-flight
// guard: the CSRF cookie when present, otherwise the remote IP.
func ClientKey(r *http.Request) string {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ClientIP(r)
}

// ClientIP returns the remote address without its port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}
