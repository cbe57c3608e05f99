package server

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/mediascan/console/session"
)

const msgRegistered = "Account created. Please sign in."

// RegisterPageHandler renders the registration page
func (s *Server) RegisterPageHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.session.Snapshot().Authenticated() {
			redirectSuccess(w, r, RouteHome)
			return
		}
		s.renderPage(w, tmpl, map[string]any{
			"AppName": s.config.GetAppName(),
			"Email":   r.URL.Query().Get("email"),
			"Error":   r.URL.Query().Get("error"),
		})
	}
}

// RegisterSubmissionHandler creates the account. It never signs the caller
// in; on success they are sent to the login page.
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")

		fail := func(msg string) {
			query := url.Values{"error": {msg}}
			if email != "" {
				query.Set("email", email)
			}
			redirectWithQuery(w, r, RouteRegister, query)
		}

		if err := session.ConfirmSecret(password, r.FormValue("confirm_password")); err != nil {
			fail(session.MsgSecretMismatch)
			return
		}

		result := s.session.Register(r.Context(), email, password)
		if !result.OK {
			fail(result.Message)
			return
		}
		redirectWithNotice(w, r, RouteLogin, msgRegistered)
	}
}
