// Package redisstore implements the CRUD hooks over Redis. Each table is
// one hash mapping the primary key to the JSON encoded record, plus a
// counter for generated ids.
package redisstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"

	"github.com/vitalvas/openroute/backend"
	"github.com/vitalvas/openroute/crud"
	"github.com/vitalvas/openroute/exceptions"
)

// Config contains configuration options for the Redis store.
type Config struct {
	// Client is the Redis client instance.
	Client redis.UniversalClient

	// KeyPrefix is the prefix for all Redis keys.
	// Default: "openroute:"
	KeyPrefix string

	// Logger receives backend failures. Default: slog.Default().
	Logger *slog.Logger

	// Unique lists fields whose values must not repeat across records.
	// Writes check them inside the same WATCH transaction as the store.
	Unique []string
}

// Store keeps the records of one table in a Redis hash.
type Store struct {
	crud.Hooks

	client  redis.UniversalClient
	rowsKey string
	seqKey  string
	table   string
	keys    []string
	unique  []string
	logger  *slog.Logger
}

// New returns a store for the table of meta.
func New(cfg Config, meta crud.Meta) (*Store, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redisstore: client is required")
	}

	if meta.Table == "" || len(meta.PrimaryKeys) == 0 {
		return nil, fmt.Errorf("redisstore: table and primary keys are required")
	}

	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "openroute:"
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Store{
		client:  cfg.Client,
		rowsKey: cfg.KeyPrefix + meta.Table + ":rows",
		seqKey:  cfg.KeyPrefix + meta.Table + ":seq",
		table:   meta.Table,
		keys:    meta.PrimaryKeys,
		unique:  cfg.Unique,
		logger:  cfg.Logger,
	}, nil
}

func (s *Store) Create(ctx context.Context, obj crud.Record) (crud.Record, error) {
	row := maps.Clone(obj)
	if row == nil {
		row = crud.Record{}
	}

	if len(s.keys) == 1 {
		if _, ok := row[s.keys[0]]; !ok {
			id, err := s.client.Incr(ctx, s.seqKey).Result()
			if err != nil {
				return nil, s.fail("create", err)
			}
			row[s.keys[0]] = id
		}
	}

	data, err := json.Marshal(row)
	if err != nil {
		return nil, s.fail("create", err)
	}

	field := backend.Key(row, s.keys)

	txf := func(tx *redis.Tx) error {
		if err := s.checkUnique(ctx, tx, row, field); err != nil {
			return err
		}

		var set *redis.BoolCmd
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			set = pipe.HSetNX(ctx, s.rowsKey, field, data)
			return nil
		})
		if err != nil {
			return err
		}

		if !set.Val() {
			return exceptions.Conflict(fmt.Sprintf("%s with this key already exists", s.table))
		}

		return nil
	}

	if err := s.watch(ctx, "create", txf); err != nil {
		return nil, err
	}

	return decode(data)
}

func (s *Store) Fetch(ctx context.Context, f crud.Filters) (crud.Record, error) {
	return s.first(ctx, f)
}

func (s *Store) GetObject(ctx context.Context, f crud.Filters) (crud.Record, error) {
	return s.first(ctx, f)
}

// first reads the record directly when the filters name every primary
// key, and scans the table otherwise.
func (s *Store) first(ctx context.Context, f crud.Filters) (crud.Record, error) {
	lookup := crud.Record{}
	for _, key := range s.keys {
		v, ok := f.Value(key)
		if !ok {
			lookup = nil
			break
		}
		lookup[key] = v
	}

	if lookup != nil {
		data, err := s.client.HGet(ctx, s.rowsKey, backend.Key(lookup, s.keys)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, s.fail("fetch", err)
		}

		row, err := decode(data)
		if err != nil {
			return nil, s.fail("fetch", err)
		}

		return s.match(row, f)
	}

	rows, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if m, err := s.match(row, f); m != nil || err != nil {
			return m, err
		}
	}

	return nil, nil
}

func (s *Store) match(row crud.Record, f crud.Filters) (crud.Record, error) {
	ok, err := backend.Matches(row, f)
	if err != nil {
		return nil, exceptions.Wrap(err)
	}
	if !ok {
		return nil, nil
	}

	return row, nil
}

// Update merges the updated data into the stored record inside a WATCH
// transaction, so concurrent writers to the table retry instead of
// overwriting each other.
func (s *Store) Update(ctx context.Context, old crud.Record, f crud.Filters) (crud.Record, error) {
	field := backend.Key(old, s.keys)

	var out crud.Record

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, s.rowsKey, field).Bytes()
		if errors.Is(err, redis.Nil) {
			return exceptions.NotFound("")
		}
		if err != nil {
			return err
		}

		row, err := decode(data)
		if err != nil {
			return err
		}

		maps.Copy(row, f.UpdatedData)

		if err := s.checkUnique(ctx, tx, row, field); err != nil {
			return err
		}

		updated, err := json.Marshal(row)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.rowsKey, field, updated)
			return nil
		})
		if err != nil {
			return err
		}

		out, err = decode(updated)
		return err
	}

	if err := s.watch(ctx, "update", txf); err != nil {
		return nil, err
	}

	return out, nil
}

// watch runs txf with the table hash watched, retrying a few times when
// another writer touches the table first.
func (s *Store) watch(ctx context.Context, op string, txf func(*redis.Tx) error) error {
	for range 3 {
		err := s.client.Watch(ctx, txf, s.rowsKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return s.fail(op, err)
		}

		return nil
	}

	return exceptions.Conflict("concurrent write, try again")
}

// checkUnique rejects row when a record stored under another hash field
// has the same value in one of the unique fields. It reads through tx so
// the check and the write see the same table.
func (s *Store) checkUnique(ctx context.Context, tx *redis.Tx, row crud.Record, skip string) error {
	if len(s.unique) == 0 {
		return nil
	}

	stored, err := tx.HGetAll(ctx, s.rowsKey).Result()
	if err != nil {
		return err
	}

	for field, data := range stored {
		if field == skip {
			continue
		}

		other, err := decode([]byte(data))
		if err != nil {
			return err
		}

		for _, name := range s.unique {
			v, ok := row[name]
			if _, has := other[name]; ok && has && backend.Equal(other[name], v) {
				return exceptions.Conflict(fmt.Sprintf("%s.%s already exists", s.table, name))
			}
		}
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, old crud.Record, _ crud.Filters) (crud.Record, error) {
	n, err := s.client.HDel(ctx, s.rowsKey, backend.Key(old, s.keys)).Result()
	if err != nil {
		return nil, s.fail("delete", err)
	}

	if n == 0 {
		return nil, exceptions.NotFound("")
	}

	return old, nil
}

func (s *Store) List(ctx context.Context, f crud.Filters) (crud.ListResult, error) {
	rows, err := s.all(ctx)
	if err != nil {
		return crud.ListResult{}, err
	}

	matched, err := backend.Filter(rows, f)
	if err != nil {
		return crud.ListResult{}, exceptions.Wrap(err)
	}

	backend.Sort(matched, f.Options, s.keys[0])

	total := len(matched)

	return crud.ListResult{Records: backend.Page(matched, f.Options), TotalCount: &total}, nil
}

func (s *Store) all(ctx context.Context) ([]crud.Record, error) {
	values, err := s.client.HVals(ctx, s.rowsKey).Result()
	if err != nil {
		return nil, s.fail("scan", err)
	}

	rows := make([]crud.Record, 0, len(values))
	for _, v := range values {
		row, err := decode([]byte(v))
		if err != nil {
			return nil, s.fail("scan", err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (s *Store) fail(op string, err error) error {
	var exc *exceptions.Exception
	if errors.As(err, &exc) {
		return exc
	}

	s.logger.Error("redisstore.error",
		slog.String("table", s.table),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)

	return exceptions.Wrap(err)
}

// decode reads a stored record. Integral numbers come back as int64 and
// the others as float64.
func decode(data []byte) (crud.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var row crud.Record
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}

	for k, v := range row {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}

		if i, err := n.Int64(); err == nil {
			row[k] = i
		} else {
			row[k] = cast.ToFloat64(n.String())
		}
	}

	return row, nil
}
