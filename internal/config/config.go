package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Mongo    MongoConfig    `json:"mongo"`
	Presence PresenceConfig `json:"presence"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig covers the HTTP gateway.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	Environment  string `json:"environment"` // development, staging, production
}

// DatabaseConfig is the MySQL connection backing the keyed store.
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

// MongoConfig is the GridFS blob backend plus the public base URL the media
// server is reachable at; uploaded messages embed URLs under that base.
type MongoConfig struct {
	URI           string `json:"uri"`
	Database      string `json:"database"`
	PublicBaseURL string `json:"public_base_url"`
}

type PresenceConfig struct {
	TypingTTLSeconds int `json:"typing_ttl_seconds"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // json, text
	OutputPath string `json:"output_path"` // stdout, stderr, or file path
}

// Load builds the configuration from environment variables with development
// defaults. cmd mains call godotenv first so a local .env participates.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvOrDefault("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvIntOrDefault("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 15),
			Environment:  getEnvOrDefault("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnvOrDefault("DB_HOST", "localhost"),
			Port:         getEnvOrDefault("DB_PORT", "3306"),
			Username:     getEnvOrDefault("DB_USER", "locketsync"),
			Password:     getEnvOrDefault("DB_PASSWORD", ""),
			DatabaseName: getEnvOrDefault("DB_NAME", "locketsync"),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		},
		Mongo: MongoConfig{
			URI:           getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database:      getEnvOrDefault("MONGO_DB", "locketsync_media"),
			PublicBaseURL: getEnvOrDefault("MEDIA_BASE_URL", "http://localhost:8081"),
		},
		Presence: PresenceConfig{
			TypingTTLSeconds: getEnvIntOrDefault("TYPING_TTL_SECONDS", 5),
		},
		Logging: LoggingConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			Format:     getEnvOrDefault("LOG_FORMAT", "text"),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
		},
	}
}

// DSN assembles the MySQL connection string for the store backend.
func (cfg *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) TypingTTL() time.Duration {
	return time.Duration(cfg.Presence.TypingTTLSeconds) * time.Second
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
