package server

import (
	"html/template"
	"net/http"
	"sort"

	"github.com/mediascan/console/session"
	"github.com/mediascan/console/users"
)

const msgAdminUnavailable = "User management is not available."

var assignableRoles = []users.RoleType{users.RoleAdmin, users.RoleUser, users.RoleViewer}

// AdminUsersListHandler lists all users
func (s *Server) AdminUsersListHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := SnapshotFromContext(r.Context())

		data := map[string]any{
			"AppName": s.config.GetAppName(),
			"User":    snap.User,
			"IsAdmin": true,
			"Roles":   assignableRoles,
			"Error":   r.URL.Query().Get("error"),
			"Notice":  r.URL.Query().Get("notice"),
		}

		if s.admin == nil {
			data["Error"] = msgAdminUnavailable
		} else {
			list, err := s.admin.ListUsers(r.Context(), snap.Token())
			if err != nil {
				s.log.Warn().Err(err).Msg("failed to list users")
				data["Error"] = session.MessageFor(err, "Could not load users.")
			}
			sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
			data["Users"] = list
		}

		noStore(w)
		s.renderPage(w, tmpl, data)
	}
}
