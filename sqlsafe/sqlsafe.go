// Package sqlsafe validates identifiers and builds parameterized filter
// clauses so that no client supplied text is ever spliced into SQL.
package sqlsafe

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/vitalvas/openroute/crud"
	"github.com/vitalvas/openroute/exceptions"
)

// MaxIdentifierLength is the longest accepted identifier.
const MaxIdentifierLength = 128

// ErrNotImplemented is returned for filter operators without a safe
// rendering.
var ErrNotImplemented = errors.New("sqlsafe: operator not implemented")

var identifierRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect selects the placeholder style.
type Dialect int

const (
	// Numbered renders ?1, ?2, ... (SQLite, D1).
	Numbered Dialect = iota

	// Postgres renders $1, $2, ...
	Postgres
)

// Placeholder returns the placeholder for the n-th parameter.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}

	return "?" + strconv.Itoa(n)
}

// ValidateSQLIdentifier checks that name is a plain identifier of at most
// MaxIdentifierLength characters. kind names the identifier in the error,
// e.g. "table" or "column". The error is a hidden 500 exception.
func ValidateSQLIdentifier(name, kind string) error {
	if name == "" || len(name) > MaxIdentifierLength || !identifierRegexp.MatchString(name) {
		return exceptions.New(fmt.Sprintf("invalid SQL %s name: %q", kind, name))
	}

	return nil
}

// ValidateColumnName checks name as a column identifier and, when allowed
// is not empty, its membership in allowed.
func ValidateColumnName(name string, allowed []string) error {
	if err := ValidateSQLIdentifier(name, "column"); err != nil {
		return err
	}

	if len(allowed) > 0 && !slices.Contains(allowed, name) {
		return exceptions.New(fmt.Sprintf("column %q is not allowed", name))
	}

	return nil
}

// ValidateOrderByColumn returns requested when it is one of allowed and a
// valid identifier; otherwise the validated fallback. Empty and
// "undefined" requests select the fallback.
func ValidateOrderByColumn(requested string, allowed []string, fallback string) (string, error) {
	requested = strings.TrimSpace(requested)

	if requested != "" && requested != "undefined" && slices.Contains(allowed, requested) {
		if err := ValidateSQLIdentifier(requested, "column"); err == nil {
			return requested, nil
		}
	}

	if err := ValidateSQLIdentifier(fallback, "column"); err != nil {
		return "", err
	}

	return fallback, nil
}

// ValidateOrderDirection returns "DESC" for any casing of "desc" and
// "ASC" for everything else.
func ValidateOrderDirection(direction string) string {
	if strings.ToUpper(strings.TrimSpace(direction)) == "DESC" {
		return "DESC"
	}

	return "ASC"
}

// BuildSafeFilters renders EQ filters as "col = ?N" conditions with the
// values in a parallel slice. Placeholders start at startIndex.
func BuildSafeFilters(filters []crud.Filter, validColumns []string, startIndex int) ([]string, []any, error) {
	return BuildSafeFiltersFor(Numbered, filters, validColumns, startIndex)
}

// BuildSafeFiltersFor is BuildSafeFilters with the placeholders of d.
func BuildSafeFiltersFor(d Dialect, filters []crud.Filter, validColumns []string, startIndex int) ([]string, []any, error) {
	conditions := make([]string, 0, len(filters))
	params := make([]any, 0, len(filters))

	for i, f := range filters {
		if err := ValidateColumnName(f.Field, validColumns); err != nil {
			return nil, nil, err
		}

		if f.Operator != crud.EQ {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotImplemented, f.Operator)
		}

		conditions = append(conditions, f.Field+" = "+d.Placeholder(startIndex+i))
		params = append(params, f.Value)
	}

	return conditions, params, nil
}
