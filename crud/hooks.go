package crud

import "context"

// CreateHandler stores new records.
type CreateHandler interface {
	BeforeCreate(ctx context.Context, obj Record) (Record, error)
	Create(ctx context.Context, obj Record) (Record, error)
	AfterCreate(ctx context.Context, obj Record) (Record, error)
}

// ReadHandler fetches one record. A nil record answers 404.
type ReadHandler interface {
	BeforeFetch(ctx context.Context, filters Filters) (Filters, error)
	Fetch(ctx context.Context, filters Filters) (Record, error)
	AfterFetch(ctx context.Context, obj Record) (Record, error)
}

// UpdateHandler changes one record. GetObject loads the current record;
// nil answers 404.
type UpdateHandler interface {
	GetObject(ctx context.Context, filters Filters) (Record, error)
	BeforeUpdate(ctx context.Context, old Record, filters Filters) (Filters, error)
	Update(ctx context.Context, old Record, filters Filters) (Record, error)
	AfterUpdate(ctx context.Context, obj Record) (Record, error)
}

// DeleteHandler removes one record and returns it.
type DeleteHandler interface {
	GetObject(ctx context.Context, filters Filters) (Record, error)
	BeforeDelete(ctx context.Context, old Record, filters Filters) (Filters, error)
	Delete(ctx context.Context, old Record, filters Filters) (Record, error)
	AfterDelete(ctx context.Context, obj Record) (Record, error)
}

// ListHandler returns a page of records.
type ListHandler interface {
	BeforeList(ctx context.Context, filters Filters) (Filters, error)
	List(ctx context.Context, filters Filters) (ListResult, error)
	AfterList(ctx context.Context, result ListResult) (ListResult, error)
}

// ListResult is the outcome of a List hook.
type ListResult struct {
	Records []Record

	// TotalCount is the number of records matching the filters across all
	// pages. Nil when unknown.
	TotalCount *int
}

// Hooks supplies no-op bodies for every hook. Embed it and override the
// hooks a backend implements. Operations without an override change
// nothing: Create echoes the record, Fetch and GetObject find nothing,
// Update and Delete return the old record and List returns no records.
type Hooks struct{}

func (Hooks) BeforeCreate(_ context.Context, obj Record) (Record, error) { return obj, nil }
func (Hooks) Create(_ context.Context, obj Record) (Record, error) { return obj, nil }
func (Hooks) AfterCreate(_ context.Context, obj Record) (Record, error) { return obj, nil }

func (Hooks) BeforeFetch(_ context.Context, f Filters) (Filters, error) { return f, nil }
func (Hooks) Fetch(context.Context, Filters) (Record, error) { return nil, nil }
func (Hooks) AfterFetch(_ context.Context, obj Record) (Record, error) { return obj, nil }

func (Hooks) GetObject(context.Context, Filters) (Record, error) { return nil, nil }

func (Hooks) BeforeUpdate(_ context.Context, _ Record, f Filters) (Filters, error) { return f, nil }
func (Hooks) Update(_ context.Context, old Record, _ Filters) (Record, error) { return old, nil }
func (Hooks) AfterUpdate(_ context.Context, obj Record) (Record, error) { return obj, nil }

func (Hooks) BeforeDelete(_ context.Context, _ Record, f Filters) (Filters, error) { return f, nil }
func (Hooks) Delete(_ context.Context, old Record, _ Filters) (Record, error) { return old, nil }
func (Hooks) AfterDelete(_ context.Context, obj Record) (Record, error) { return obj, nil }

func (Hooks) BeforeList(_ context.Context, f Filters) (Filters, error) { return f, nil }
func (Hooks) List(context.Context, Filters) (ListResult, error) { return ListResult{}, nil }
func (Hooks) AfterList(_ context.Context, r ListResult) (ListResult, error) { return r, nil }
