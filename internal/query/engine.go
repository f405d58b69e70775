// Package query provides the paged, filtered query pipeline shared by the
// report and queue listings. Row sources own SQL and ordering; the engine
// owns page clamping, totals, and export capping. Sources must order rows
// deterministically (creation timestamp descending, then surrogate id
// descending) so identical criteria always produce the same page boundaries.
package query

import (
	"context"
	"fmt"
)

// Totals carries full-set aggregate sums keyed by column name, in minor units.
type Totals map[string]int64

// Add merges another totals map into the receiver.
func (t Totals) Add(other Totals) {
	for key, value := range other {
		t[key] += value
	}
}

// Source supplies filtered rows for one report domain.
type Source[C, T any] interface {
	// QueryPage returns one page of rows plus the total matching count.
	QueryPage(ctx context.Context, criteria C, limit, offset int) ([]T, int64, error)
	// QueryAll returns up to cap rows plus the true matching count.
	QueryAll(ctx context.Context, criteria C, cap int) ([]T, int64, error)
}

// Aggregator is implemented by sources that can sum over the full filtered set.
type Aggregator[C any] interface {
	Aggregate(ctx context.Context, criteria C) (Totals, error)
}

// PagedResult is one page of rows with pagination metadata.
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	PageNumber int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
}

// TotalPages derives the page count from TotalCount and PageSize.
func (r PagedResult[T]) TotalPages() int {
	if r.PageSize <= 0 || r.TotalCount <= 0 {
		return 0
	}
	return int((r.TotalCount + int64(r.PageSize) - 1) / int64(r.PageSize))
}

// ExportResult is an unpaged, capped dump of the filtered set.
type ExportResult[T any] struct {
	Rows          []T   `json:"rows"`
	RowCount      int   `json:"rowCount"`
	TotalMatching int64 `json:"totalMatching"`
	Truncated     bool  `json:"truncated"`
}

// Engine executes paged and export queries over an injected source.
type Engine[C, T any] struct {
	Source          Source[C, T]
	MinPageSize     int
	MaxPageSize     int
	DefaultPageSize int
	ExportCap       int
}

func (e Engine[C, T]) minSize() int {
	if e.MinPageSize > 0 {
		return e.MinPageSize
	}
	return 1
}

func (e Engine[C, T]) maxSize() int {
	if e.MaxPageSize > 0 {
		return e.MaxPageSize
	}
	return 100
}

func (e Engine[C, T]) defaultSize() int {
	if e.DefaultPageSize > 0 && e.DefaultPageSize <= e.maxSize() {
		return e.DefaultPageSize
	}
	return e.maxSize()
}

func (e Engine[C, T]) exportCap() int {
	if e.ExportCap > 0 {
		return e.ExportCap
	}
	return 50000
}

// ClampPageSize restricts a client-supplied page size into the configured range.
// Non-positive input falls back to the default size.
func (e Engine[C, T]) ClampPageSize(size int) int {
	if size <= 0 {
		return e.defaultSize()
	}
	if size < e.minSize() {
		return e.minSize()
	}
	if size > e.maxSize() {
		return e.maxSize()
	}
	return size
}

// Query returns one deterministically ordered page plus full-set totals when
// the source supports aggregation. Page numbers below 1 are treated as 1; an
// empty result always reports page 1.
func (e Engine[C, T]) Query(ctx context.Context, criteria C, page, size int) (PagedResult[T], Totals, error) {
	if e.Source == nil {
		return PagedResult[T]{}, nil, fmt.Errorf("query engine: source not configured")
	}
	if page < 1 {
		page = 1
	}
	size = e.ClampPageSize(size)
	offset := (page - 1) * size

	rows, total, err := e.Source.QueryPage(ctx, criteria, size, offset)
	if err != nil {
		return PagedResult[T]{}, nil, fmt.Errorf("query page: %w", err)
	}
	if total <= 0 {
		page = 1
		rows = nil
	}
	result := PagedResult[T]{
		Items:      rows,
		PageNumber: page,
		PageSize:   size,
		TotalCount: total,
	}
	if result.Items == nil {
		result.Items = []T{}
	}

	var totals Totals
	if agg, ok := e.Source.(Aggregator[C]); ok && total > 0 {
		totals, err = agg.Aggregate(ctx, criteria)
		if err != nil {
			return PagedResult[T]{}, nil, fmt.Errorf("aggregate: %w", err)
		}
	}
	return result, totals, nil
}

// Export returns all matching rows up to the configured cap. Hitting the cap
// is signalled via Truncated, not an error.
func (e Engine[C, T]) Export(ctx context.Context, criteria C) (ExportResult[T], error) {
	if e.Source == nil {
		return ExportResult[T]{}, fmt.Errorf("query engine: source not configured")
	}
	limit := e.exportCap()
	rows, matching, err := e.Source.QueryAll(ctx, criteria, limit)
	if err != nil {
		return ExportResult[T]{}, fmt.Errorf("query all: %w", err)
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	result := ExportResult[T]{
		Rows:          rows,
		RowCount:      len(rows),
		TotalMatching: matching,
		Truncated:     matching > int64(len(rows)),
	}
	if result.Rows == nil {
		result.Rows = []T{}
	}
	return result, nil
}
