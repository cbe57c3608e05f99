package server

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/mediascan/console/session"
)

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.session.Snapshot()
		if snap.Authenticated() {
			redirectSuccess(w, r, RouteHome)
			return
		}

		query := r.URL.Query()
		noStore(w)
		s.renderPage(w, tmpl, map[string]any{
			"AppName":    s.config.GetAppName(),
			"Email":      query.Get("email"),
			"Error":      query.Get("error"),
			"Notice":     query.Get("notice"),
			"InProgress": snap.Status == session.Authenticating,
		})
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")

		result := s.session.TryLogin(r.Context(), email, password)
		if !result.OK {
			s.renderLoginError(w, r, result.Message, email)
			return
		}
		redirectSuccess(w, r, RouteHome)
	}
}

// LogoutHandler ends the session (POST /auth/logout). It always succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.session.Logout(r.Context())
		redirectSuccess(w, r, RouteLogin)
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, email string) {
	query := url.Values{"error": {errorMsg}}
	if email != "" {
		query.Set("email", email)
	}
	redirectWithQuery(w, r, RouteLogin, query)
}
