package etl

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/BartekS5/metrics-etl/internal/storage"
	"github.com/BartekS5/metrics-etl/pkg/models"
	"github.com/BartekS5/metrics-etl/pkg/utils"
	"github.com/zeebo/xxh3"
)

// UniqueIDColumn is the leading, zero-based row number column of every output.
const UniqueIDColumn = "Unique ID"

// LoadResult describes an uploaded metric table.
type LoadResult struct {
	Path   string
	Rows   int
	Bytes  int
	Digest string
}

// EncodeCSV serializes t with a header row and a leading Unique ID column.
// The output depends only on the table, so equal tables encode to equal bytes.
func EncodeCSV(t *models.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{UniqueIDColumn}, t.Columns...)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	record := make([]string, len(header))
	for i, r := range t.Rows {
		record[0] = strconv.Itoa(i)
		for j, c := range t.Columns {
			record[j+1] = utils.FormatCell(r[c])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest is the hex xxh3 hash of content.
func Digest(content []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(content))
}

// BlobLoader writes metric tables as CSV blobs.
type BlobLoader struct {
	Store storage.Store
}

func NewBlobLoader(store storage.Store) *BlobLoader {
	return &BlobLoader{Store: store}
}

func (l *BlobLoader) Load(ctx context.Context, t *models.Table, sink models.Sink) (LoadResult, error) {
	content, err := EncodeCSV(t)
	if err != nil {
		return LoadResult{}, fmt.Errorf("encode CSV: %w", err)
	}
	dir := sink.Dir()
	if err := l.Store.Upload(ctx, content, sink.Container, dir, sink.File); err != nil {
		return LoadResult{}, fmt.Errorf("upload %s/%s/%s: %w", sink.Container, dir, sink.File, err)
	}
	return LoadResult{
		Path:   models.JoinFolder(dir, sink.File),
		Rows:   t.Len(),
		Bytes:  len(content),
		Digest: Digest(content),
	}, nil
}
