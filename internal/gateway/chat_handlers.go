package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"locketsync/internal/chat"
	"locketsync/internal/model"
)

// channelWith resolves the caller and the channel shared with the peer in
// the route. The self-channel guard lives here so DeriveChannelID never
// sees equal ids from the outside.
func channelWith(w http.ResponseWriter, r *http.Request) (selfID, peerID, chatID string, ok bool) {
	selfID, ok = principal(w, r)
	if !ok {
		return
	}
	peerID = mux.Vars(r)["peerId"]
	if peerID == "" || peerID == selfID {
		http.Error(w, "invalid peer id", http.StatusBadRequest)
		return "", "", "", false
	}
	return selfID, peerID, chat.DeriveChannelID(selfID, peerID), true
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	msg, err := s.chat.SendMessage(r.Context(), selfID, mux.Vars(r)["peerId"], body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) sendMediaMessage(w http.ResponseWriter, r *http.Request) {
	selfID, ok := principal(w, r)
	if !ok {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "multipart field 'file' is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	msg, err := s.chat.SendMediaMessage(r.Context(), selfID, mux.Vars(r)["peerId"],
		file, header.Filename, mimeType, mediaTypeFor(mimeType))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func mediaTypeFor(mimeType string) model.MessageType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return model.MessageImage
	case strings.HasPrefix(mimeType, "video/"):
		return model.MessageVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return model.MessageAudio
	default:
		return model.MessageFile
	}
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	_, _, chatID, ok := channelWith(w, r)
	if !ok {
		return
	}
	msgs, err := s.chat.Messages(r.Context(), chatID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	selfID, _, chatID, ok := channelWith(w, r)
	if !ok {
		return
	}
	if err := s.chat.MarkRead(r.Context(), chatID, selfID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"read": true})
}

func (s *Server) setTyping(w http.ResponseWriter, r *http.Request) {
	selfID, _, chatID, ok := channelWith(w, r)
	if !ok {
		return
	}
	var body struct {
		Typing bool `json:"typing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.presence.SetTyping(r.Context(), chatID, selfID, body.Typing); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) streamMessages(w http.ResponseWriter, r *http.Request) {
	_, _, chatID, ok := channelWith(w, r)
	if !ok {
		return
	}
	feed, err := s.chat.ObserveMessages(r.Context(), chatID)
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
			if !sse.send("messages", ev.Messages) {
				return
			}
		}
	}
}

func (s *Server) streamTyping(w http.ResponseWriter, r *http.Request) {
	_, peerID, chatID, ok := channelWith(w, r)
	if !ok {
		return
	}
	feed, err := s.presence.ObserveTyping(r.Context(), chatID, peerID)
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
			if !sse.send("typing", map[string]bool{"typing": ev.Typing}) {
				return
			}
		}
	}
}
