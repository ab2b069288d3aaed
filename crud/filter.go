package crud

import "math"

// Operator is the comparison of a Filter.
type Operator string

const (
	// EQ matches records whose field equals the value.
	EQ Operator = "EQ"

	// LIKE matches records whose field contains the value. It is produced
	// by the List search parameter.
	LIKE Operator = "LIKE"
)

// Filter is one condition used to select records.
type Filter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Options carries the List pagination and ordering options.
type Options struct {
	Page             int    `json:"page"`
	PerPage          int    `json:"per_page"`
	OrderBy          string `json:"order_by,omitempty"`
	OrderByDirection string `json:"order_by_direction,omitempty"`

	// SearchFields are the columns matched by a LIKE filter.
	SearchFields []string `json:"search_fields,omitempty"`
}

// Offset returns the number of records before the requested page. It
// saturates at math.MaxInt instead of overflowing.
func (o Options) Offset() int {
	if o.Page < 1 || o.PerPage < 1 {
		return 0
	}

	if o.Page-1 > math.MaxInt/o.PerPage {
		return math.MaxInt
	}

	return (o.Page - 1) * o.PerPage
}

// Filters is the input of the fetch, update, delete and list hooks.
type Filters struct {
	// Filters are the selection conditions.
	Filters []Filter

	// Options are set by List only.
	Options Options

	// UpdatedData holds the body fields supplied to Update. Fields the
	// client did not send are absent.
	UpdatedData map[string]any
}

// Value returns the value of the first EQ filter on field.
func (f Filters) Value(field string) (any, bool) {
	for _, filter := range f.Filters {
		if filter.Field == field && filter.Operator == EQ {
			return filter.Value, true
		}
	}

	return nil, false
}
