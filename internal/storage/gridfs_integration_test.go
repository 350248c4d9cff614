//go:build integration

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a MongoDB instance, e.g.
//
//	GRIDFS_TEST_URI=mongodb://localhost:27017/metrics_it go test -tags integration ./internal/storage/...
func TestGridFSStoreIntegration(t *testing.T) {
	uri := os.Getenv("GRIDFS_TEST_URI")
	if uri == "" {
		t.Skip("GRIDFS_TEST_URI not set")
	}
	ctx := context.Background()

	store, err := NewGridFSStore(ctx, uri)
	require.NoError(t, err)
	defer store.Close(ctx)

	bucket := fmt.Sprintf("it_%d", time.Now().UnixNano())
	defer store.db.Collection(bucket + ".files").Drop(ctx)
	defer store.db.Collection(bucket + ".chunks").Drop(ctx)

	require.NoError(t, store.Upload(ctx, []byte("v1"), bucket, "land/m/2022-01-01", "f.csv"))
	require.NoError(t, store.Upload(ctx, []byte("v2"), bucket, "land/m/2022-01-01", "f.csv"))
	require.NoError(t, store.Upload(ctx, []byte("x"), bucket, "land/m/2022-02-01", "f.csv"))
	require.NoError(t, store.Upload(ctx, []byte("x"), bucket, "land/other/2023-01-01", "f.csv"))

	data, err := store.Download(ctx, bucket, "land/m/2022-01-01", "f.csv")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data), "newest revision wins")

	_, err = store.Download(ctx, bucket, "land/m/2022-01-01", "missing.csv")
	assert.True(t, errors.Is(err, ErrNotFound))

	folders, err := store.ListFolders(ctx, bucket, "/land/m")
	require.NoError(t, err)
	assert.Equal(t, []string{"2022-01-01", "2022-02-01"}, folders)

	latest, err := LatestFolder(ctx, store, bucket, "land/m/")
	require.NoError(t, err)
	assert.Equal(t, "2022-02-01", latest)
}
