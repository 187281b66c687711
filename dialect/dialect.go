// Package dialect names the SQL dialects facet can introspect and
// defines the minimal database handle the inspection layer works
// against.
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The constants match the scheme names used by ariga.io/atlas, so they
// can be passed straight to dialect/sqlschema.Inspect:
//
//	tables, err := sqlschema.Inspect(ctx, db, dialect.Postgres)
//
// # ExecQuerier Interface
//
// ExecQuerier is the subset of database/sql that schema inspection
// needs. Both *sql.DB and *sql.Tx implement it, so inspection can run
// on a plain connection pool or inside a transaction.
package dialect

import (
	"context"
	"database/sql"
)

// Dialect names accepted by dialect/sqlschema.Inspect.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// ExecQuerier wraps the database/sql methods used during schema
// inspection.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
