//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"locketsync/internal/blob"
	"locketsync/internal/chat"
	"locketsync/internal/config"
	"locketsync/internal/friends"
	"locketsync/internal/gateway"
	"locketsync/internal/presence"
)

// InitializeApplication wires the full gateway stack: config, MySQL-backed
// store, GridFS blob storage, the three core services, and the HTTP server.
func InitializeApplication(cfg *config.Config) (*Application, error) {
	wire.Build(
		ProvideDatabase,
		ProvideStore,
		blob.NewMongoConnection,
		ProvideBlobStorage,
		ProvideTypingTTL,
		chat.NewService,
		presence.NewService,
		friends.NewService,
		gateway.NewServer,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
