package server

import (
	"encoding/json"
	"net/http"
)

// SessionAPIHandler exposes the current snapshot as JSON. The bearer token
// is never included.
func (s *Server) SessionAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		w.Header().Set("Content-Type", contentTypeJSON)
		if err := json.NewEncoder(w).Encode(s.session.Snapshot()); err != nil {
			s.log.Err(err).Msg("Failed to encode session snapshot")
		}
	}
}
