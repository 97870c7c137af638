package main

import (
	"log"
	"net"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"locketsync/internal/blob"
	"locketsync/internal/config"
	"locketsync/internal/media"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using system env variables")
	}

	cfg := config.Load()

	mongoClient, err := blob.NewMongoConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	storage := blob.NewGridStorage(mongoClient, cfg.Mongo.PublicBaseURL)
	server := media.NewHTTPServer(storage)

	port := os.Getenv("MEDIA_PORT")
	if port == "" {
		port = "8081"
	}
	addr := net.JoinHostPort(cfg.Server.Host, port)

	log.Printf("media-server listening on %s", addr)
	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("Media server failed: %v", err)
	}
}
