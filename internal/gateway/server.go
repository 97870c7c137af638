// Package gateway is the HTTP surface over the synchronization core. It
// resolves the caller once in auth middleware and threads the principal id
// into every operation; live feeds are exposed as server-sent events whose
// underlying subscriptions close with the request.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"locketsync/internal/chat"
	"locketsync/internal/common"
	"locketsync/internal/friends"
	"locketsync/internal/presence"
)

type Server struct {
	friends  *friends.Service
	chat     *chat.Service
	presence *presence.Service
}

func NewServer(f *friends.Service, c *chat.Service, p *presence.Service) *Server {
	return &Server{friends: f, chat: c, presence: p}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.health).Methods("GET")

	api := router.PathPrefix("/").Subrouter()
	api.Use(common.Auth)

	api.HandleFunc("/users/search", s.searchUsers).Methods("GET")

	api.HandleFunc("/friends/requests", s.sendFriendRequest).Methods("POST")
	api.HandleFunc("/friends/requests", s.listFriendRequests).Methods("GET")
	api.HandleFunc("/friends/requests/stream", s.streamFriendRequests).Methods("GET")
	api.HandleFunc("/friends/requests/{id}/accept", s.acceptFriendRequest).Methods("POST")
	api.HandleFunc("/friends/requests/{id}/decline", s.declineFriendRequest).Methods("POST")
	api.HandleFunc("/friends", s.listFriends).Methods("GET")
	api.HandleFunc("/friends/stream", s.streamFriends).Methods("GET")
	api.HandleFunc("/friends/{edgeId}", s.removeFriend).Methods("DELETE")
	api.HandleFunc("/blocks", s.blockUser).Methods("POST")

	api.HandleFunc("/presence", s.setPresence).Methods("PUT")

	api.HandleFunc("/chats/{peerId}/messages", s.sendMessage).Methods("POST")
	api.HandleFunc("/chats/{peerId}/messages", s.listMessages).Methods("GET")
	api.HandleFunc("/chats/{peerId}/messages/stream", s.streamMessages).Methods("GET")
	api.HandleFunc("/chats/{peerId}/media", s.sendMediaMessage).Methods("POST")
	api.HandleFunc("/chats/{peerId}/read", s.markRead).Methods("POST")
	api.HandleFunc("/chats/{peerId}/typing", s.setTyping).Methods("PUT")
	api.HandleFunc("/chats/{peerId}/typing/stream", s.streamTyping).Methods("GET")

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func principal(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := common.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "user not authenticated", http.StatusUnauthorized)
	}
	return id, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("gateway: response encoding failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch common.CodeOf(err) {
	case common.CodeInvalidInput:
		status = http.StatusBadRequest
	case common.CodeDuplicateRequest:
		status = http.StatusConflict
	case common.CodeNotFound:
		status = http.StatusNotFound
	case common.CodeIntegrityViolation:
		status = http.StatusConflict
	case common.CodeTimeout:
		status = http.StatusGatewayTimeout
	case common.CodeStoreUnavailable:
		status = http.StatusServiceUnavailable
	case common.CodeUploadFailed:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{
		"code":  string(common.CodeOf(err)),
		"error": err.Error(),
	})
}
