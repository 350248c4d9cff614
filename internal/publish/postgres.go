package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/BartekS5/metrics-etl/pkg/logger"
	"github.com/BartekS5/metrics-etl/pkg/models"
	"github.com/jackc/pgx/v5"
)

var measurementColumns = []string{"metric_name", "unique_id", "period", "measure", "value"}

// PostgresPublisher replaces rows with a DELETE followed by COPY.
type PostgresPublisher struct {
	conn  *pgx.Conn
	table pgx.Identifier
}

func NewPostgresPublisher(ctx context.Context, dsn, table string) (*PostgresPublisher, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}
	p := &PostgresPublisher{conn: conn, table: pgx.Identifier(strings.Split(table, "."))}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  metric_name TEXT NOT NULL,
  unique_id INTEGER NOT NULL,
  period TEXT NOT NULL,
  measure TEXT NOT NULL,
  value DOUBLE PRECISION,
  PRIMARY KEY (metric_name, unique_id, measure)
)`, p.table.Sanitize())
	if _, err := conn.Exec(ctx, ddl); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	logger.Debugf("Connected to postgres.")
	return p, nil
}

func (p *PostgresPublisher) Publish(ctx context.Context, metric, periodColumn string, t *models.Table) (int64, error) {
	rows, err := Measurements(metric, periodColumn, t)
	if err != nil {
		return 0, err
	}

	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE metric_name = $1", p.table.Sanitize()), metric); err != nil {
		return 0, fmt.Errorf("delete previous rows: %w", err)
	}

	src := make([][]any, len(rows))
	for i, m := range rows {
		var value any
		if m.Value.Valid {
			value = m.Value.Float64
		}
		src[i] = []any{m.Metric, int32(m.UniqueID), m.Period, m.Measure, value}
	}
	n, err := tx.CopyFrom(ctx, p.table, measurementColumns, pgx.CopyFromRows(src))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", p.table.Sanitize(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (p *PostgresPublisher) Close() error {
	return p.conn.Close(context.Background())
}
