package server

import (
	"net/http"
	"strconv"

	"github.com/mediascan/console/session"
	"github.com/mediascan/console/users"
)

// AdminUserUpdateHandler changes a user's role or active flag
// (POST /admin/users/{id}). Empty form fields are left unchanged.
func (s *Server) AdminUserUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := SnapshotFromContext(r.Context())
		userID, ok := s.adminTarget(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var update users.Update
		if raw := r.FormValue("role"); raw != "" {
			role, err := users.ParseRole(raw)
			if err != nil {
				redirectWithError(w, r, RouteAdminUsers, "Unknown role.")
				return
			}
			update.Role = &role
		}
		if raw := r.FormValue("is_active"); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				redirectWithError(w, r, RouteAdminUsers, "Invalid active flag.")
				return
			}
			update.IsActive = &active
		}
		if update.Role == nil && update.IsActive == nil {
			redirectWithError(w, r, RouteAdminUsers, "Nothing to update.")
			return
		}

		updated, err := s.admin.UpdateUser(r.Context(), snap.Token(), userID, update)
		if err != nil {
			s.log.Warn().Err(err).Int("user_id", userID).Msg("failed to update user")
			redirectWithError(w, r, RouteAdminUsers, session.MessageFor(err, "Could not update user."))
			return
		}
		redirectWithNotice(w, r, RouteAdminUsers, "Updated "+updated.DisplayName()+".")
	}
}

// AdminUserDeleteHandler removes a user (POST /admin/users/{id}/delete)
func (s *Server) AdminUserDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := SnapshotFromContext(r.Context())
		userID, ok := s.adminTarget(w, r)
		if !ok {
			return
		}

		if err := s.admin.DeleteUser(r.Context(), snap.Token(), userID); err != nil {
			s.log.Warn().Err(err).Int("user_id", userID).Msg("failed to delete user")
			redirectWithError(w, r, RouteAdminUsers, session.MessageFor(err, "Could not delete user."))
			return
		}
		redirectWithNotice(w, r, RouteAdminUsers, "User deleted.")
	}
}

// adminTarget parses {id} and checks an admin client is configured.
func (s *Server) adminTarget(w http.ResponseWriter, r *http.Request) (int, bool) {
	if s.admin == nil {
		redirectWithError(w, r, RouteAdminUsers, msgAdminUnavailable)
		return 0, false
	}
	userID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || userID <= 0 {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return 0, false
	}
	return userID, true
}
