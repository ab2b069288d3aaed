// Package memory provides an in-process store implementing every CRUD
// hook. It is meant for development and tests; nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/vitalvas/openroute/backend"
	"github.com/vitalvas/openroute/crud"
	"github.com/vitalvas/openroute/exceptions"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithUUIDs generates random UUID strings for missing primary keys
// instead of sequential integers.
func WithUUIDs() Option {
	return func(s *Store) {
		s.nextKey = func() any { return uuid.NewString() }
	}
}

// WithUnique declares fields whose values must not repeat across records.
func WithUnique(fields ...string) Option {
	return func(s *Store) {
		s.unique = append(s.unique, fields...)
	}
}

// WithOrderBy sets the List order column used when none is requested.
// Defaults to the first primary key.
func WithOrderBy(column string) Option {
	return func(s *Store) {
		s.orderBy = column
	}
}

// Store keeps the records of one table in insertion order.
type Store struct {
	crud.Hooks

	mu      sync.RWMutex
	table   string
	keys    []string
	unique  []string
	orderBy string
	rows    []crud.Record
	seq     int64
	nextKey func() any
	logger  *slog.Logger
}

// New returns an empty store for meta. Meta must declare primary keys.
func New(meta crud.Meta, opts ...Option) (*Store, error) {
	if meta.Table == "" || len(meta.PrimaryKeys) == 0 {
		return nil, fmt.Errorf("memory: table and primary keys are required")
	}

	s := &Store{
		table:   meta.Table,
		keys:    meta.PrimaryKeys,
		orderBy: meta.PrimaryKeys[0],
		logger:  slog.Default(),
	}

	s.nextKey = func() any {
		s.seq++
		return s.seq
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Seed inserts records as Create would.
func (s *Store) Seed(ctx context.Context, records ...crud.Record) error {
	for _, r := range records {
		if _, err := s.Create(ctx, maps.Clone(r)); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rows)
}

func (s *Store) Create(_ context.Context, obj crud.Record) (crud.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := maps.Clone(obj)
	if row == nil {
		row = crud.Record{}
	}

	if len(s.keys) == 1 {
		if v, ok := row[s.keys[0]]; !ok {
			row[s.keys[0]] = s.nextKey()
		} else if n, err := cast.ToInt64E(v); err == nil && n > s.seq {
			s.seq = n
		}
	}

	if err := s.checkUnique(row, -1); err != nil {
		return nil, err
	}

	s.rows = append(s.rows, row)

	s.logger.Debug("memory.create", slog.String("table", s.table), slog.String("key", backend.Key(row, s.keys)))

	return maps.Clone(row), nil
}

func (s *Store) Fetch(_ context.Context, f crud.Filters) (crud.Record, error) {
	return s.first(f)
}

func (s *Store) GetObject(_ context.Context, f crud.Filters) (crud.Record, error) {
	return s.first(f)
}

func (s *Store) Update(_ context.Context, old crud.Record, f crud.Filters) (crud.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(old)
	if i < 0 {
		return nil, exceptions.NotFound("")
	}

	row := maps.Clone(s.rows[i])
	maps.Copy(row, f.UpdatedData)

	if err := s.checkUnique(row, i); err != nil {
		return nil, err
	}

	s.rows[i] = row

	return maps.Clone(row), nil
}

func (s *Store) Delete(_ context.Context, old crud.Record, _ crud.Filters) (crud.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(old)
	if i < 0 {
		return nil, exceptions.NotFound("")
	}

	row := s.rows[i]
	s.rows = append(s.rows[:i], s.rows[i+1:]...)

	return row, nil
}

func (s *Store) List(_ context.Context, f crud.Filters) (crud.ListResult, error) {
	s.mu.RLock()
	matched, err := backend.Filter(s.rows, f)
	s.mu.RUnlock()

	if err != nil {
		return crud.ListResult{}, exceptions.Wrap(err)
	}

	backend.Sort(matched, f.Options, s.orderBy)

	total := len(matched)
	page := backend.Page(matched, f.Options)

	records := make([]crud.Record, len(page))
	for i, r := range page {
		records[i] = maps.Clone(r)
	}

	return crud.ListResult{Records: records, TotalCount: &total}, nil
}

func (s *Store) first(f crud.Filters) (crud.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.rows {
		ok, err := backend.Matches(r, f)
		if err != nil {
			return nil, exceptions.Wrap(err)
		}
		if ok {
			return maps.Clone(r), nil
		}
	}

	return nil, nil
}

func (s *Store) index(r crud.Record) int {
	key := backend.Key(r, s.keys)

	for i, row := range s.rows {
		if backend.Key(row, s.keys) == key {
			return i
		}
	}

	return -1
}

// checkUnique rejects row when another record, other than the one at
// skip, has the same primary key or unique field value.
func (s *Store) checkUnique(row crud.Record, skip int) error {
	key := backend.Key(row, s.keys)

	for i, other := range s.rows {
		if i == skip {
			continue
		}

		if backend.Key(other, s.keys) == key {
			return exceptions.Conflict(fmt.Sprintf("%s with this key already exists", s.table))
		}

		for _, field := range s.unique {
			v, ok := row[field]
			if ok && backend.Equal(other[field], v) {
				return exceptions.Conflict(fmt.Sprintf("%s.%s already exists", s.table, field))
			}
		}
	}

	return nil
}
