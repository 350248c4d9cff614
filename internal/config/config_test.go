package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("SECRET_SCOPE", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("PUBLISH_DSN", "")
	t.Setenv("PUBLISH_TABLE", "")
	t.Setenv("PUSHGATEWAY_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		StorageBackend: DefaultBackend,
		SecretScope:    DefaultSecretScope,
		SecretKey:      DefaultSecretKey,
	}, cfg)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "ftp")

	_, err := LoadConfig()
	require.Error(t, err)
}
