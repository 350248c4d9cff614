// Package publish copies finished metric tables into a reporting database,
// one row per period and measure, replacing whatever the metric held before.
package publish

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/BartekS5/metrics-etl/pkg/models"
	"github.com/BartekS5/metrics-etl/pkg/utils"
)

// DefaultTable receives the measurements when no table is configured.
const DefaultTable = "metric_values"

// Publisher replaces a metric's rows in the reporting table.
type Publisher interface {
	Publish(ctx context.Context, metric, periodColumn string, t *models.Table) (int64, error)
	Close() error
}

// Measurement is one cell of a metric table in long form.
type Measurement struct {
	Metric   string
	UniqueID int
	Period   string
	Measure  string
	Value    sql.NullFloat64
}

// Measurements flattens t: every non-period column of every row becomes one
// measurement. UniqueID matches the row number written to the CSV output.
func Measurements(metric, periodColumn string, t *models.Table) ([]Measurement, error) {
	if !t.HasColumn(periodColumn) {
		return nil, fmt.Errorf("period column %q missing", periodColumn)
	}
	out := make([]Measurement, 0, t.Len()*(len(t.Columns)-1))
	for i, r := range t.Rows {
		period := utils.FormatCell(r[periodColumn])
		for _, c := range t.Columns {
			if c == periodColumn {
				continue
			}
			f, ok, err := utils.ConvertToFloat(r[c])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, c, err)
			}
			out = append(out, Measurement{
				Metric:   metric,
				UniqueID: i,
				Period:   period,
				Measure:  c,
				Value:    sql.NullFloat64{Float64: f, Valid: ok && utils.IsFinite(f)},
			})
		}
	}
	return out, nil
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

func checkTableName(name string) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// Open connects to the reporting database for driver ("sqlserver", "mysql",
// "sqlite" or "postgres") and makes sure the target table exists.
func Open(ctx context.Context, driver, dsn, table string) (Publisher, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, fmt.Errorf("publish: empty DSN for driver %s", driver)
	}

	switch strings.ToLower(driver) {
	case "postgres", "pgx":
		return NewPostgresPublisher(ctx, dsn, table)
	default:
		d, ok := dialects[strings.ToLower(driver)]
		if !ok {
			return nil, fmt.Errorf("publish: unsupported driver %q", driver)
		}
		return OpenSQL(ctx, d, dsn, table)
	}
}

func quoteFQN(name string, quote func(string) string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}
