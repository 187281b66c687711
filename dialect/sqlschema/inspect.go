package sqlschema

import (
	"context"
	"fmt"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/facet/dialect"
)

// InspectOption configures a call to Inspect.
type InspectOption func(*inspectConfig)

type inspectConfig struct {
	schema string
	tables []string
}

// WithSchema selects the database schema to inspect. When unset the
// connection's current schema is used.
func WithSchema(name string) InspectOption {
	return func(c *inspectConfig) { c.schema = name }
}

// WithTables restricts inspection to the named tables.
func WithTables(names ...string) InspectOption {
	return func(c *inspectConfig) { c.tables = names }
}

// Inspect reads the tables of a live database schema. The dialect
// names the ariga.io/atlas driver to inspect with and must be one of
// the dialect package constants.
func Inspect(ctx context.Context, db dialect.ExecQuerier, d string, opts ...InspectOption) ([]*schema.Table, error) {
	cfg := inspectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var (
		drv schema.Inspector
		err error
	)
	switch d {
	case dialect.MySQL:
		drv, err = mysql.Open(db)
	case dialect.Postgres:
		drv, err = postgres.Open(db)
	case dialect.SQLite:
		drv, err = sqlite.Open(db)
	default:
		return nil, fmt.Errorf("sqlschema: unsupported dialect %q", d)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlschema: open %s driver: %w", d, err)
	}
	s, err := drv.InspectSchema(ctx, cfg.schema, &schema.InspectOptions{
		Mode:   schema.InspectSchemas | schema.InspectTables,
		Tables: cfg.tables,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlschema: inspect schema: %w", err)
	}
	return s.Tables, nil
}
