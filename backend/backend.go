// Package backend holds the record matching, ordering and paging shared by
// the in-process stores. The stores themselves live in the subpackages.
package backend

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/vitalvas/openroute/crud"
	"github.com/vitalvas/openroute/sqlsafe"
)

// Key joins the primary key values of r into one string.
func Key(r crud.Record, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = cast.ToString(r[k])
	}

	return strings.Join(parts, "\x00")
}

// Equal compares two field values. Numbers of different Go types with the
// same value are equal, as are a number and its decimal string.
func Equal(a, b any) bool {
	return cast.ToString(a) == cast.ToString(b)
}

// Matches reports whether r satisfies every filter. A LIKE filter matches
// when any search field contains the value, case-insensitively.
func Matches(r crud.Record, f crud.Filters) (bool, error) {
	for _, filter := range f.Filters {
		switch filter.Operator {
		case crud.EQ:
			if !Equal(r[filter.Field], filter.Value) {
				return false, nil
			}
		case crud.LIKE:
			if !like(r, f.Options.SearchFields, cast.ToString(filter.Value)) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("%w: %s", sqlsafe.ErrNotImplemented, filter.Operator)
		}
	}

	return true, nil
}

func like(r crud.Record, fields []string, value string) bool {
	value = strings.ToLower(value)

	for _, field := range fields {
		if strings.Contains(strings.ToLower(cast.ToString(r[field])), value) {
			return true
		}
	}

	return false
}

// Filter returns the records of rs matching f.
func Filter(rs []crud.Record, f crud.Filters) ([]crud.Record, error) {
	out := make([]crud.Record, 0, len(rs))

	for _, r := range rs {
		ok, err := Matches(r, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}

	return out, nil
}

// Sort orders rs in place by the column and direction of opts, falling
// back to column. Numeric values compare as numbers.
func Sort(rs []crud.Record, opts crud.Options, column string) {
	if opts.OrderBy != "" {
		column = opts.OrderBy
	}

	if column == "" {
		return
	}

	desc := sqlsafe.ValidateOrderDirection(opts.OrderByDirection) == "DESC"

	slices.SortStableFunc(rs, func(a, b crud.Record) int {
		c := compare(a[column], b[column])
		if desc {
			return -c
		}
		return c
	})
}

func compare(a, b any) int {
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)

	if errA == nil && errB == nil {
		return cmp.Compare(fa, fb)
	}

	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

// Page returns the records of the page selected by opts. A zero PerPage
// returns everything after the offset.
func Page(rs []crud.Record, opts crud.Options) []crud.Record {
	offset := opts.Offset()
	if offset < 0 || offset >= len(rs) {
		return []crud.Record{}
	}

	end := len(rs)
	if opts.PerPage > 0 && opts.PerPage < len(rs)-offset {
		end = offset + opts.PerPage
	}

	return rs[offset:end]
}
