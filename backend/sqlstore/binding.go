package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vitalvas/openroute/crud"
	"github.com/vitalvas/openroute/sqlsafe"
)

// Binding is a database handle in the prepare, bind, run shape of edge SQL
// bindings.
type Binding interface {
	// Prepare returns a statement for query. Nothing is sent to the
	// database until the statement runs.
	Prepare(query string) Statement

	// Dialect reports the placeholder style the database expects.
	Dialect() sqlsafe.Dialect
}

// Statement is a prepared query with bound parameters.
type Statement interface {
	// Bind returns the statement with args bound to its placeholders in
	// order.
	Bind(args ...any) Statement

	// All runs the query and returns every row.
	All(ctx context.Context) (Result, error)

	// First runs the query and returns the first row, or nil.
	First(ctx context.Context) (crud.Record, error)

	// Run executes the statement without reading rows.
	Run(ctx context.Context) (Result, error)
}

// Result is the outcome of a statement.
type Result struct {
	Results []crud.Record
	Changes int64
}

// DB adapts a *sql.DB to Binding.
type DB struct {
	db      *sql.DB
	dialect sqlsafe.Dialect
}

// FromDB wraps db. Use sqlsafe.Postgres for lib/pq connections.
func FromDB(db *sql.DB, dialect sqlsafe.Dialect) *DB {
	return &DB{db: db, dialect: dialect}
}

func (d *DB) Prepare(query string) Statement {
	return &statement{db: d.db, query: query}
}

func (d *DB) Dialect() sqlsafe.Dialect {
	return d.dialect
}

type statement struct {
	db    *sql.DB
	query string
	args  []any
}

func (s *statement) Bind(args ...any) Statement {
	return &statement{db: s.db, query: s.query, args: args}
}

func (s *statement) All(ctx context.Context) (Result, error) {
	rows, err := s.db.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return Result{}, err
	}

	return Result{Results: records}, nil
}

func (s *statement) First(ctx context.Context) (crud.Record, error) {
	res, err := s.All(ctx)
	if err != nil || len(res.Results) == 0 {
		return nil, err
	}

	return res.Results[0], nil
}

func (s *statement) Run(ctx context.Context) (Result, error) {
	res, err := s.db.ExecContext(ctx, s.query, s.args...)
	if err != nil {
		return Result{}, err
	}

	changes, err := res.RowsAffected()
	if err != nil {
		return Result{}, fmt.Errorf("rows affected: %w", err)
	}

	return Result{Changes: changes}, nil
}

func scanRows(rows *sql.Rows) ([]crud.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []crud.Record

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record := make(crud.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}

		out = append(out, record)
	}

	return out, rows.Err()
}
