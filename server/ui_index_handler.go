package server

import (
	"html/template"
	"net/http"

	"github.com/mediascan/console/users"
)

// DashboardHandler renders the landing page for an authenticated user
func (s *Server) DashboardHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := SnapshotFromContext(r.Context())

		noStore(w)
		s.renderPage(w, tmpl, map[string]any{
			"AppName":   s.config.GetAppName(),
			"User":      snap.User,
			"ExpiresAt": snap.ExpiresAt,
			"IsAdmin":   snap.HasRole(users.RoleAdmin),
		})
	}
}
