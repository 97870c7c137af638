package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// sseWriter streams server-sent events. Each feed event becomes one SSE
// frame; the HTTP request context owns the feed lifetime.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, true
}

func (s *sseWriter) send(event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("gateway: sse payload encoding failed: %v", err)
		return false
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return false
	}
	s.flusher.Flush()
	return true
}

func (s *sseWriter) error(err error) {
	s.send("error", map[string]string{"error": err.Error()})
}
