// Package sqlstore implements the CRUD hooks over a SQL database. Every
// identifier is checked by sqlsafe and every value is bound as a
// parameter.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"github.com/vitalvas/openroute/crud"
	"github.com/vitalvas/openroute/exceptions"
	"github.com/vitalvas/openroute/sqlsafe"
)

// uniqueViolation is the SQLSTATE of a unique constraint failure.
const uniqueViolation = "23505"

var (
	sqliteUnique = regexp.MustCompile(`UNIQUE constraint failed: ([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)`)
	pqKeyDetail  = regexp.MustCompile(`Key \(([^)]+)\)=`)
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger of backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithOrderBy sets the List order column used when none is requested.
// Defaults to the first primary key.
func WithOrderBy(column string) Option {
	return func(s *Store) {
		s.orderBy = column
	}
}

// Store maps the CRUD hooks of one table to SQL statements.
type Store struct {
	crud.Hooks

	db      Binding
	dialect sqlsafe.Dialect
	table   string
	keys    []string
	columns []string
	orderBy string
	logger  *slog.Logger
}

// New returns a store for the table of meta. The columns are the fields of
// meta.Schema; the table and every column must be plain identifiers.
func New(db Binding, meta crud.Meta, opts ...Option) (*Store, error) {
	if err := sqlsafe.ValidateSQLIdentifier(meta.Table, "table"); err != nil {
		return nil, err
	}

	if meta.Schema == nil || len(meta.PrimaryKeys) == 0 {
		return nil, fmt.Errorf("sqlstore: %s: schema and primary keys are required", meta.Table)
	}

	columns := meta.Schema.FieldNames()
	for _, col := range columns {
		if err := sqlsafe.ValidateSQLIdentifier(col, "column"); err != nil {
			return nil, err
		}
	}

	s := &Store{
		db:      db,
		dialect: db.Dialect(),
		table:   meta.Table,
		keys:    meta.PrimaryKeys,
		columns: columns,
		orderBy: meta.PrimaryKeys[0],
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := sqlsafe.ValidateColumnName(s.orderBy, s.columns); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) Create(ctx context.Context, obj crud.Record) (crud.Record, error) {
	cols := make([]string, 0, len(obj))
	for _, col := range slices.Sorted(maps.Keys(obj)) {
		if slices.Contains(s.columns, col) {
			cols = append(cols, col)
		}
	}

	if len(cols) == 0 {
		return nil, exceptions.InputValidation("No columns to insert")
	}

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = s.dialect.Placeholder(i + 1)
		args[i] = obj[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		s.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	row, err := s.db.Prepare(query).Bind(args...).First(ctx)
	if err != nil {
		return nil, s.mapError("create", err)
	}

	return row, nil
}

func (s *Store) Fetch(ctx context.Context, f crud.Filters) (crud.Record, error) {
	return s.first(ctx, f)
}

func (s *Store) GetObject(ctx context.Context, f crud.Filters) (crud.Record, error) {
	return s.first(ctx, f)
}

func (s *Store) first(ctx context.Context, f crud.Filters) (crud.Record, error) {
	where, args, err := s.where(f, 1)
	if err != nil {
		return nil, s.mapError("fetch", err)
	}

	row, err := s.db.Prepare("SELECT * FROM " + s.table + where + " LIMIT 1").Bind(args...).First(ctx)
	if err != nil {
		return nil, s.mapError("fetch", err)
	}

	return row, nil
}

func (s *Store) Update(ctx context.Context, old crud.Record, f crud.Filters) (crud.Record, error) {
	cols := make([]string, 0, len(f.UpdatedData))
	for _, col := range slices.Sorted(maps.Keys(f.UpdatedData)) {
		if err := sqlsafe.ValidateColumnName(col, s.columns); err != nil {
			return nil, s.mapError("update", err)
		}
		cols = append(cols, col)
	}

	if len(cols) == 0 {
		return old, nil
	}

	sets := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		sets[i] = col + " = " + s.dialect.Placeholder(i+1)
		args[i] = f.UpdatedData[col]
	}

	where, keyArgs, err := s.where(s.keyFilters(old), len(cols)+1)
	if err != nil {
		return nil, s.mapError("update", err)
	}

	query := "UPDATE " + s.table + " SET " + strings.Join(sets, ", ") + where + " RETURNING *"

	row, err := s.db.Prepare(query).Bind(append(args, keyArgs...)...).First(ctx)
	if err != nil {
		return nil, s.mapError("update", err)
	}

	if row == nil {
		return nil, exceptions.NotFound("")
	}

	return row, nil
}

func (s *Store) Delete(ctx context.Context, old crud.Record, _ crud.Filters) (crud.Record, error) {
	where, args, err := s.where(s.keyFilters(old), 1)
	if err != nil {
		return nil, s.mapError("delete", err)
	}

	res, err := s.db.Prepare("DELETE FROM " + s.table + where).Bind(args...).Run(ctx)
	if err != nil {
		return nil, s.mapError("delete", err)
	}

	if res.Changes == 0 {
		return nil, exceptions.NotFound("")
	}

	return old, nil
}

// List runs the page query and the count query concurrently.
func (s *Store) List(ctx context.Context, f crud.Filters) (crud.ListResult, error) {
	where, args, err := s.where(f, 1)
	if err != nil {
		return crud.ListResult{}, s.mapError("list", err)
	}

	column, err := sqlsafe.ValidateOrderByColumn(f.Options.OrderBy, s.columns, s.orderBy)
	if err != nil {
		return crud.ListResult{}, s.mapError("list", err)
	}

	direction := sqlsafe.ValidateOrderDirection(f.Options.OrderByDirection)

	page := "SELECT * FROM " + s.table + where + " ORDER BY " + column + " " + direction
	if f.Options.PerPage > 0 {
		page += " LIMIT " + strconv.Itoa(f.Options.PerPage) + " OFFSET " + strconv.Itoa(f.Options.Offset())
	}

	var (
		records []crud.Record
		total   int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := s.db.Prepare(page).Bind(args...).All(gctx)
		records = res.Results
		return err
	})

	g.Go(func() error {
		row, err := s.db.Prepare("SELECT COUNT(*) AS total FROM " + s.table + where).Bind(args...).First(gctx)
		if err != nil {
			return err
		}
		total = cast.ToInt(row["total"])
		return nil
	})

	if err := g.Wait(); err != nil {
		return crud.ListResult{}, s.mapError("list", err)
	}

	if records == nil {
		records = []crud.Record{}
	}

	return crud.ListResult{Records: records, TotalCount: &total}, nil
}

// where renders the filters as a WHERE clause. EQ filters go through
// sqlsafe; a LIKE filter matches any of the search columns.
func (s *Store) where(f crud.Filters, start int) (string, []any, error) {
	var eq []crud.Filter
	var conditions []string
	var args []any

	for _, filter := range f.Filters {
		if filter.Operator != crud.LIKE {
			eq = append(eq, filter)
		}
	}

	conds, eqArgs, err := sqlsafe.BuildSafeFiltersFor(s.dialect, eq, s.columns, start)
	if err != nil {
		return "", nil, err
	}

	conditions = append(conditions, conds...)
	args = append(args, eqArgs...)

	for _, filter := range f.Filters {
		if filter.Operator != crud.LIKE {
			continue
		}

		var alts []string
		for _, col := range f.Options.SearchFields {
			if err := sqlsafe.ValidateColumnName(col, s.columns); err != nil {
				return "", nil, err
			}

			alts = append(alts, "LOWER("+col+") LIKE "+s.dialect.Placeholder(start+len(args)))
			args = append(args, "%"+strings.ToLower(cast.ToString(filter.Value))+"%")
		}

		if len(alts) > 0 {
			conditions = append(conditions, "("+strings.Join(alts, " OR ")+")")
		}
	}

	if len(conditions) == 0 {
		return "", args, nil
	}

	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

func (s *Store) keyFilters(r crud.Record) crud.Filters {
	out := crud.Filters{Filters: make([]crud.Filter, len(s.keys))}
	for i, key := range s.keys {
		out.Filters[i] = crud.Filter{Field: key, Operator: crud.EQ, Value: r[key]}
	}

	return out
}

// mapError turns a backend failure into a typed exception. Unique
// violations become a 400 pointing at the column; everything else is a
// hidden 500.
func (s *Store) mapError(op string, err error) error {
	var exc *exceptions.Exception
	if errors.As(err, &exc) {
		return exc
	}

	if column, ok := uniqueColumn(err); ok {
		return exceptions.InputValidation(column+" already exists", "body", column)
	}

	s.logger.Error("sqlstore.error",
		slog.String("table", s.table),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)

	return exceptions.Wrap(err)
}

// uniqueColumn extracts the column of a unique constraint failure from a
// lib/pq error or a SQLite style message.
func uniqueColumn(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		if m := pqKeyDetail.FindStringSubmatch(pqErr.Detail); m != nil {
			return m[1], true
		}
		if pqErr.Column != "" {
			return pqErr.Column, true
		}
		return pqErr.Constraint, true
	}

	if m := sqliteUnique.FindStringSubmatch(err.Error()); m != nil {
		return m[2], true
	}

	return "", false
}
