package etl

import (
	"context"

	"github.com/BartekS5/metrics-etl/internal/config"
	"github.com/BartekS5/metrics-etl/pkg/models"
)

type Extractor interface {
	Extract(ctx context.Context, src models.Source) (*models.Table, error)
}

type Loader interface {
	Load(ctx context.Context, table *models.Table, sink models.Sink) (LoadResult, error)
}

// Inputs are the extracted tables of one run keyed by source role.
type Inputs map[string]*models.Table

// Recipe is one metric: which configuration keys it reads, how its inputs
// become the metric table and which guarantees that table must meet.
type Recipe interface {
	Name() string
	Description() string
	// ConfigFile is the pipeline config blob name the metric is defined in.
	ConfigFile() string
	Keys() config.Keys
	Transform(in Inputs) (*models.Table, error)
	Checks() OutputChecks
}
