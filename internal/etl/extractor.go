package etl

import (
	"context"
	"fmt"

	"github.com/BartekS5/metrics-etl/internal/storage"
	"github.com/BartekS5/metrics-etl/pkg/logger"
	"github.com/BartekS5/metrics-etl/pkg/models"
	"github.com/sirupsen/logrus"
)

// BlobExtractor reads a whole source blob from the store and decodes it.
type BlobExtractor struct {
	Store storage.Store
}

func NewBlobExtractor(store storage.Store) *BlobExtractor {
	return &BlobExtractor{Store: store}
}

func (e *BlobExtractor) Extract(ctx context.Context, src models.Source) (*models.Table, error) {
	dir := src.Dir()
	data, err := e.Store.Download(ctx, src.Container, dir, src.File)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s/%s: %w", src.Container, dir, src.File, err)
	}

	format := src.Format
	if format == "" {
		format = models.FormatFromFilename(src.File)
	}
	table, err := Decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s/%s: %w", format, dir, src.File, err)
	}
	if err := requireColumns(table, src.Required...); err != nil {
		return nil, fmt.Errorf("%s source %s/%s: %w", src.Role, dir, src.File, err)
	}

	logger.WithFields(logrus.Fields{
		"role":   src.Role,
		"file":   dir + "/" + src.File,
		"format": string(format),
		"rows":   table.Len(),
		"bytes":  len(data),
	}).Info("Extracted source")
	return table, nil
}
