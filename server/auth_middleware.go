package server

import (
	"context"
	"html/template"
	"net/http"

	"github.com/mediascan/console/guard"
	"github.com/mediascan/console/session"
)

type snapshotContextKey struct{}

// SnapshotFromContext returns the session snapshot the guard admitted the
// request with.
func SnapshotFromContext(ctx context.Context) (session.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotContextKey{}).(session.Snapshot)
	return snap, ok
}

// RequireSession applies the route guard to HTML routes. While the session
// is settling it renders the loading page instead of redirecting, so a
// restored session is not bounced to /login during startup.
func (s *Server) RequireSession(req guard.Requirement, loading *template.Template) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			snap := s.session.Snapshot()
			decision := guard.Decide(snap, req)

			switch decision.Action {
			case guard.Loading:
				noStore(w)
				s.renderPage(w, loading, map[string]any{
					"AppName": s.config.GetAppName(),
					"Status":  snap.Status.String(),
					"Refresh": 1,
				})
			case guard.RedirectLogin:
				if decision.Unavailable {
					msg := snap.LastError
					if msg == "" {
						msg = session.MsgStoreUnavailable
					}
					redirectWithError(w, r, RouteLogin, msg)
					return
				}
				redirectSuccess(w, r, RouteLogin)
			case guard.RedirectHome:
				s.log.Debug().Str("path", r.URL.Path).Str("requirement", req.String()).Msg("role mismatch, redirecting home")
				redirectSuccess(w, r, RouteHome)
			default:
				ctx := context.WithValue(r.Context(), snapshotContextKey{}, snap)
				next(w, r.WithContext(ctx))
			}
		}
	}
}
