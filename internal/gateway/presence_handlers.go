package gateway

import (
	"encoding/json"
	"net/http"
)

// setPresence stamps the caller's profile online flag and last-seen time.
// Clients call it on foreground/background transitions.
func (s *Server) setPresence(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.presence.MarkSeen(r.Context(), selfID, body.Online); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
