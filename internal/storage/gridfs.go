package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BartekS5/metrics-etl/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultGridFSDatabase is used when the MongoDB URI does not name a database.
const DefaultGridFSDatabase = "metrics"

// GridFSStore keeps blobs in MongoDB GridFS. The container is the GridFS
// bucket name and the object key is the GridFS file name. Re-uploading a
// name adds a revision; downloads always read the newest one.
type GridFSStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*GridFSStore)(nil)

func NewGridFSStore(ctx context.Context, uri string) (*GridFSStore, error) {
	client, err := database.ConnectMongo(ctx, uri)
	if err != nil {
		return nil, err
	}

	dbName := DefaultGridFSDatabase
	if name, err := parseMongoDatabase(uri); err == nil && name != "" {
		dbName = name
	}
	return &GridFSStore{client: client, db: client.Database(dbName)}, nil
}

// parseMongoDatabase returns the database named in a MongoDB URI, or "" when
// it names none. mongodb+srv URIs resolve their seed list over DNS.
func parseMongoDatabase(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", err
	}
	return cs.Database, nil
}

func (g *GridFSStore) bucket(container string) (*gridfs.Bucket, error) {
	return gridfs.NewBucket(g.db, options.GridFSBucket().SetName(container))
}

func (g *GridFSStore) Download(ctx context.Context, container, dir, name string) ([]byte, error) {
	b, err := g.bucket(container)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.SetReadDeadline(deadline)
	}

	key := objectKey(dir, name)
	var buf bytes.Buffer
	if _, err := b.DownloadToStreamByName(key, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("gridfs://%s/%s: %w", container, key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download 'gridfs://%s/%s': %w", container, key, err)
	}
	return buf.Bytes(), nil
}

type gridFSFile struct {
	Filename string `bson:"filename"`
}

func (g *GridFSStore) ListFolders(ctx context.Context, container, prefix string) ([]string, error) {
	b, err := g.bucket(container)
	if err != nil {
		return nil, err
	}
	prefix = folderPrefix(prefix)

	filter := bson.M{"filename": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	cursor, err := b.Find(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list 'gridfs://%s/%s': %w", container, prefix, err)
	}
	defer cursor.Close(ctx)

	seen := map[string]struct{}{}
	for cursor.Next(ctx) {
		var f gridFSFile
		if err := cursor.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode GridFS file entry: %w", err)
		}
		rest := strings.TrimPrefix(f.Filename, prefix)
		if i := strings.Index(rest, "/"); i > 0 {
			seen[rest[:i]] = struct{}{}
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	folders := make([]string, 0, len(seen))
	for name := range seen {
		folders = append(folders, name)
	}
	sort.Strings(folders)
	return folders, nil
}

func (g *GridFSStore) Upload(ctx context.Context, content []byte, container, dir, name string) error {
	b, err := g.bucket(container)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.SetWriteDeadline(deadline)
	}

	key := objectKey(dir, name)
	if _, err := b.UploadFromStream(key, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to upload 'gridfs://%s/%s': %w", container, key, err)
	}
	return nil
}

func (g *GridFSStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return g.client.Disconnect(ctx)
}
