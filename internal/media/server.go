package media

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"locketsync/internal/blob"
)

// HTTPServer resolves the URLs GridStorage hands out: GET /media/{fileId}
// streams the stored blob back.
type HTTPServer struct {
	storage *blob.GridStorage
}

func NewHTTPServer(storage *blob.GridStorage) *HTTPServer {
	return &HTTPServer{storage: storage}
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router := mux.NewRouter()

	router.HandleFunc("/media/{fileId}", s.serveFile).Methods("GET")
	router.HandleFunc("/health", s.health).Methods("GET")

	router.ServeHTTP(w, r)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileID := vars["fileId"]

	fileReader, mediaFile, err := s.storage.Download(r.Context(), fileID)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	contentType := mediaFile.MimeType
	if contentType == "" {
		contentType = contentTypeFor(mediaFile.Filename)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", mediaFile.Size))

	if _, err := io.Copy(w, fileReader); err != nil {
		log.Printf("Error streaming file: %v", err)
	}
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("media server is healthy"))
}
