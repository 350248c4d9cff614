// Package storage provides the blob stores metric pipelines read their
// extracts from and write their metric tables to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrNoFolder is returned when a prefix has no dated subfolder.
	ErrNoFolder = errors.New("no dated subfolder found")
)

// Lister lists the direct subfolders under a prefix of a container.
type Lister interface {
	ListFolders(ctx context.Context, container, prefix string) ([]string, error)
}

// Store is the storage client used by every pipeline stage. dir is a slash
// separated folder inside the container and name the file within it.
type Store interface {
	Lister
	Download(ctx context.Context, container, dir, name string) ([]byte, error)
	Upload(ctx context.Context, content []byte, container, dir, name string) error
	Close(ctx context.Context) error
}

// Backend names accepted by Open.
const (
	BackendS3     = "s3"
	BackendGridFS = "gridfs"
	BackendFile   = "file"
)

// Open builds a Store for backend from the storage credential. The
// credential is an S3 connection string, a MongoDB URI or a root directory.
func Open(ctx context.Context, backend, connString string) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendS3:
		return NewS3StoreFromConnectionString(connString)
	case BackendGridFS:
		return NewGridFSStore(ctx, connString)
	case BackendFile, "":
		return NewFileStore(connString)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func objectKey(dir, name string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func folderPrefix(prefix string) string {
	prefix = strings.TrimLeft(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
