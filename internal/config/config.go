// Package config handles loading of process settings from the environment
// and of the pipeline JSON configuration kept in the data store.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Defaults for the secret that holds the storage credential.
const (
	DefaultSecretScope = "datalakefs"
	DefaultSecretKey   = "CONNECTION_STRING"
	DefaultBackend     = "s3"
)

// Where the pipeline JSON configurations live unless overridden.
const (
	DefaultConfigContainer = "nhsxdatalakesagen2fsprod"
	DefaultConfigPath      = "/config/pipelines/nhsx-au-analytics/"
)

// Config holds the process settings, typically loaded from environment
// variables (which may be populated by the .env file in main.go).
type Config struct {
	StorageBackend string
	SecretScope    string
	SecretKey      string
	PublishDSN     string
	PublishTable   string
	PushgatewayURL string
}

// LoadConfig loads application settings from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		StorageBackend: getenv("STORAGE_BACKEND", DefaultBackend),
		SecretScope:    getenv("SECRET_SCOPE", DefaultSecretScope),
		SecretKey:      getenv("SECRET_KEY", DefaultSecretKey),
		PublishDSN:     os.Getenv("PUBLISH_DSN"),
		PublishTable:   os.Getenv("PUBLISH_TABLE"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}

	switch strings.ToLower(cfg.StorageBackend) {
	case "s3", "gridfs", "file":
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND %q is not one of s3, gridfs, file", cfg.StorageBackend)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
