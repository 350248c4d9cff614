package publish

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/BartekS5/metrics-etl/pkg/database"
	"github.com/BartekS5/metrics-etl/pkg/logger"
	"github.com/BartekS5/metrics-etl/pkg/models"
)

// Dialect carries the SQL differences between the database/sql drivers.
type Dialect struct {
	Driver      string
	Placeholder func(n int) string
	Quote       func(ident string) string
	// CreateTable returns the DDL for the quoted table. SQL Server also needs
	// the bare name for OBJECT_ID.
	CreateTable func(quoted, bare string) string
}

var dialects = map[string]Dialect{
	"sqlserver": {
		Driver:      "sqlserver",
		Placeholder: func(n int) string { return fmt.Sprintf("@p%d", n) },
		Quote:       func(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" },
		CreateTable: func(quoted, bare string) string {
			return fmt.Sprintf(`IF OBJECT_ID(N'%s', N'U') IS NULL
CREATE TABLE %s (
  metric_name NVARCHAR(200) NOT NULL,
  unique_id INT NOT NULL,
  period NVARCHAR(32) NOT NULL,
  measure NVARCHAR(200) NOT NULL,
  value FLOAT NULL,
  PRIMARY KEY (metric_name, unique_id, measure)
)`, bare, quoted)
		},
	},
	"mysql": {
		Driver:      "mysql",
		Placeholder: func(int) string { return "?" },
		Quote:       func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
		CreateTable: func(quoted, _ string) string {
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  metric_name VARCHAR(200) NOT NULL,
  unique_id INT NOT NULL,
  period VARCHAR(32) NOT NULL,
  measure VARCHAR(200) NOT NULL,
  value DOUBLE NULL,
  PRIMARY KEY (metric_name, unique_id, measure)
)`, quoted)
		},
	},
	"sqlite": {
		Driver:      "sqlite",
		Placeholder: func(int) string { return "?" },
		Quote:       func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
		CreateTable: func(quoted, _ string) string {
			return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  metric_name TEXT NOT NULL,
  unique_id INTEGER NOT NULL,
  period TEXT NOT NULL,
  measure TEXT NOT NULL,
  value REAL,
  PRIMARY KEY (metric_name, unique_id, measure)
)`, quoted)
		},
	},
}

// SQLPublisher publishes through database/sql.
type SQLPublisher struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// OpenSQL connects with database.ConnectSQL and creates the table if needed.
func OpenSQL(ctx context.Context, d Dialect, dsn, table string) (*SQLPublisher, error) {
	db, err := database.ConnectSQL(ctx, d.Driver, dsn)
	if err != nil {
		return nil, err
	}
	p, err := NewSQLPublisher(ctx, db, d, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func NewSQLPublisher(ctx context.Context, db *sql.DB, d Dialect, table string) (*SQLPublisher, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	p := &SQLPublisher{db: db, dialect: d, table: table}
	if _, err := db.ExecContext(ctx, d.CreateTable(p.quotedTable(), table)); err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return p, nil
}

func (p *SQLPublisher) quotedTable() string {
	return quoteFQN(p.table, p.dialect.Quote)
}

// Publish deletes the metric's rows and inserts the new ones in one transaction.
func (p *SQLPublisher) Publish(ctx context.Context, metric, periodColumn string, t *models.Table) (int64, error) {
	rows, err := Measurements(metric, periodColumn, t)
	if err != nil {
		return 0, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ph := p.dialect.Placeholder
	del := fmt.Sprintf("DELETE FROM %s WHERE metric_name = %s", p.quotedTable(), ph(1))
	if _, err := tx.ExecContext(ctx, del, metric); err != nil {
		return 0, fmt.Errorf("delete previous rows: %w", err)
	}

	ins := fmt.Sprintf("INSERT INTO %s (metric_name, unique_id, period, measure, value) VALUES (%s, %s, %s, %s, %s)",
		p.quotedTable(), ph(1), ph(2), ph(3), ph(4), ph(5))
	stmt, err := tx.PrepareContext(ctx, ins)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range rows {
		if _, err := stmt.ExecContext(ctx, m.Metric, m.UniqueID, m.Period, m.Measure, m.Value); err != nil {
			return 0, fmt.Errorf("insert %s row %d %q: %w", m.Metric, m.UniqueID, m.Measure, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	logger.Debugf("Published %d measurements for %s to %s (%s)", len(rows), metric, p.table, p.dialect.Driver)
	return int64(len(rows)), nil
}

func (p *SQLPublisher) Close() error {
	return p.db.Close()
}
