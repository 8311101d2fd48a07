// Package config loads application configuration from environment variables.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration for the gateway and the dev backend.
type Config struct {
	Port   string
	AppEnv string

	// Media backend that validates grants and mints presigned URLs.
	BackendURL    string
	BackendSecret string

	// Remote image-convert collaborator.
	ConvertURL string

	// Dev backend only: S3-compatible store the presigned URLs point at.
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool

	// Dev backend only: secret the grant signatures are derived from.
	GrantSecret string
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, reading from environment")
	}

	return &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "staging"),

		BackendURL:    getEnv("BACKEND_URL", "http://localhost:9200"),
		BackendSecret: getEnv("BACKEND_SECRET", "change_me_in_production"),

		ConvertURL: getEnv("CONVERT_URL", "http://localhost:9300"),

		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
		StorageBucket:    getEnv("STORAGE_BUCKET", "media"),
		StorageUseSSL:    getEnv("STORAGE_USE_SSL", "false") == "true",

		GrantSecret: getEnv("GRANT_SECRET", "change_me_in_production"),
	}
}

// IsProduction returns true when the app is running in production mode.
// Outside production, upstream failures are relayed verbatim to the caller.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
