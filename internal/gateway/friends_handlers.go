package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	results, err := s.friends.SearchUsers(r.Context(), selfID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) sendFriendRequest(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		TargetID string `json:"targetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req, err := s.friends.SendFriendRequest(r.Context(), selfID, body.TargetID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) listFriendRequests(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	requests, err := s.friends.PendingRequests(r.Context(), selfID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) acceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	if err := s.friends.AcceptFriendRequest(r.Context(), selfID, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

func (s *Server) declineFriendRequest(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	if err := s.friends.DeclineFriendRequest(r.Context(), selfID, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"declined": true})
}

func (s *Server) listFriends(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	edges, err := s.friends.Friends(r.Context(), selfID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, edges)
}

func (s *Server) removeFriend(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	if err := s.friends.RemoveFriend(r.Context(), selfID, mux.Vars(r)["edgeId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) blockUser(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		TargetID string `json:"targetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.friends.BlockUser(r.Context(), selfID, body.TargetID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"blocked": true})
}

func (s *Server) streamFriendRequests(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	feed, err := s.friends.ObserveFriendRequests(r.Context(), selfID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer feed.Close()

	sse, ok := newSSEWriter(w)
	if !ok {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-feed.Events():
			if !open {
				return
			}
			if ev.Err != nil {
				sse.error(ev.Err)
				return
			}
			if !sse.send("requests", ev.Requests) {
				return
			}
		}
	}
}

func (s *Server) streamFriends(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	feed, err := s.friends.ObserveFriends(r.Context(), selfID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer feed.Close()

	sse, ok := newSSEWriter(w)
	if !ok {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-feed.Events():
			if !open {
				return
			}
			if ev.Err != nil {
				sse.error(ev.Err)
				return
			}
			if !sse.send("friends", ev.Friends) {
				return
			}
		}
	}
}
