package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

var (
	// FileStorePerms are the permissions files are created with.
	FileStorePerms os.FileMode = 0644
	// DirPerms are the permissions directories are created with.
	DirPerms os.FileMode = 0755
)

// FileStore keeps blobs on the local disk, one top-level directory per container.
type FileStore struct {
	directory string
}

// FileStore must implement the Store interface
var _ Store = FileStore{}

// NewFileStore creates a store rooted at dir, creating it when missing.
func NewFileStore(dir string) (FileStore, error) {
	if dir == "" {
		return FileStore{}, fmt.Errorf("file store root directory is required")
	}
	dir = filepath.Clean(dir)
	if file, err := os.Stat(dir); err != nil {
		// don't throw error if just doesn't exist
		if !os.IsNotExist(err) {
			return FileStore{}, fmt.Errorf("could not access path '%s': %w", dir, err)
		}

		if err = os.MkdirAll(dir, DirPerms); err != nil {
			return FileStore{}, fmt.Errorf("could not create directory '%s': %w", dir, err)
		}
	} else if !file.IsDir() {
		return FileStore{}, fmt.Errorf("the path '%s' is a file", dir)
	}

	return FileStore{directory: dir}, nil
}

func (f FileStore) path(container, dir, name string) string {
	return filepath.Join(f.directory, container, filepath.FromSlash(objectKey(dir, name)))
}

func (f FileStore) Download(_ context.Context, container, dir, name string) ([]byte, error) {
	p := f.path(container, dir, name)
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read '%s': %w", p, err)
	}
	return data, nil
}

func (f FileStore) ListFolders(_ context.Context, container, prefix string) ([]string, error) {
	p := filepath.Join(f.directory, container, filepath.FromSlash(folderPrefix(prefix)))
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("could not list '%s': %w", p, err)
	}

	var folders []string
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}

func (f FileStore) Upload(_ context.Context, content []byte, container, dir, name string) error {
	p := f.path(container, dir, name)
	if err := os.MkdirAll(filepath.Dir(p), DirPerms); err != nil {
		return fmt.Errorf("could not create directory '%s': %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, content, FileStorePerms); err != nil {
		return fmt.Errorf("could not write '%s': %w", p, err)
	}
	return nil
}

func (f FileStore) Close(context.Context) error { return nil }
