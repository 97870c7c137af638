package di

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"locketsync/internal/blob"
	"locketsync/internal/config"
	"locketsync/internal/gateway"
	"locketsync/internal/store"
)

// Application bundles everything a cmd main needs to serve.
type Application struct {
	Config  *config.Config
	DB      *gorm.DB
	Store   store.Store
	Mongo   *blob.MongoClient
	Gateway *gateway.Server
}

func ProvideDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Println("connected to MySQL")
	return db, nil
}

func ProvideStore(db *gorm.DB) (store.Store, error) {
	return store.NewGorm(db)
}

func ProvideBlobStorage(mongoClient *blob.MongoClient, cfg *config.Config) blob.Storage {
	return blob.NewGridStorage(mongoClient, cfg.Mongo.PublicBaseURL)
}

func ProvideTypingTTL(cfg *config.Config) time.Duration {
	return cfg.TypingTTL()
}
