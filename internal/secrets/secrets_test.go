package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DATALAKEFS_CONNECTION_STRING", EnvName("datalakefs", "CONNECTION_STRING"))
	assert.Equal(t, "DATA_LAKE_CONN_STR", EnvName("data-lake", "conn.str"))
	assert.Equal(t, "TOKEN", EnvName("", "token"))
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("DATALAKEFS_CONNECTION_STRING", "Region=eu-west-2")

	v, err := EnvProvider{}.GetSecret("datalakefs", "CONNECTION_STRING")
	require.NoError(t, err)
	assert.Equal(t, "Region=eu-west-2", v)

	_, err = EnvProvider{}.GetSecret("datalakefs", "MISSING_KEY")
	require.Error(t, err)
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	require.NoError(t, os.WriteFile(path, []byte("DATALAKEFS_CONNECTION_STRING=mongodb://localhost:27017/metrics\n"), 0600))

	p, err := NewFileProvider(path)
	require.NoError(t, err)

	v, err := p.GetSecret("datalakefs", "CONNECTION_STRING")
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017/metrics", v)

	_, err = p.GetSecret("other", "KEY")
	require.Error(t, err)

	_, err = NewFileProvider(filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
}
