package query

import (
	"context"
	"testing"
)

type fakeCriteria struct {
	MinValue int64
}

type fakeRow struct {
	ID    int
	Value int64
}

// memSource serves rows already sorted newest-first the way a SQL source would.
type memSource struct {
	rows []fakeRow
}

func (s memSource) matching(c fakeCriteria) []fakeRow {
	out := make([]fakeRow, 0, len(s.rows))
	for _, row := range s.rows {
		if row.Value >= c.MinValue {
			out = append(out, row)
		}
	}
	return out
}

func (s memSource) QueryPage(_ context.Context, c fakeCriteria, limit, offset int) ([]fakeRow, int64, error) {
	match := s.matching(c)
	total := int64(len(match))
	if offset >= len(match) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(match) {
		end = len(match)
	}
	return match[offset:end], total, nil
}

func (s memSource) QueryAll(_ context.Context, c fakeCriteria, limit int) ([]fakeRow, int64, error) {
	match := s.matching(c)
	total := int64(len(match))
	if len(match) > limit {
		match = match[:limit]
	}
	return match, total, nil
}

func (s memSource) Aggregate(_ context.Context, c fakeCriteria) (Totals, error) {
	var sum int64
	for _, row := range s.matching(c) {
		sum += row.Value
	}
	return Totals{"value": sum}, nil
}

func sourceOf(n int) memSource {
	rows := make([]fakeRow, 0, n)
	for i := n; i >= 1; i-- {
		rows = append(rows, fakeRow{ID: i, Value: int64(i * 100)})
	}
	return memSource{rows: rows}
}

func TestQueryClampsPageNumber(t *testing.T) {
	engine := Engine[fakeCriteria, fakeRow]{Source: sourceOf(5), DefaultPageSize: 2, MaxPageSize: 10}
	result, _, err := engine.Query(context.Background(), fakeCriteria{}, -3, 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.PageNumber != 1 {
		t.Fatalf("page = %d, want 1", result.PageNumber)
	}
	if len(result.Items) != 2 || result.Items[0].ID != 5 {
		t.Fatalf("unexpected first page %+v", result.Items)
	}
}

func TestQueryBeyondLastPageKeepsCounts(t *testing.T) {
	engine := Engine[fakeCriteria, fakeRow]{Source: sourceOf(5), MaxPageSize: 10}
	result, _, err := engine.Query(context.Background(), fakeCriteria{}, 9, 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Items) != 0 {
		t.Fatalf("expected empty page, got %d items", len(result.Items))
	}
	if result.TotalCount != 5 {
		t.Fatalf("total = %d, want 5", result.TotalCount)
	}
	if result.TotalPages() != 3 {
		t.Fatalf("totalPages = %d, want 3", result.TotalPages())
	}
	if result.PageNumber != 9 {
		t.Fatalf("page = %d, want requested 9", result.PageNumber)
	}
}

func TestQueryEmptyResultReportsPageOne(t *testing.T) {
	engine := Engine[fakeCriteria, fakeRow]{Source: sourceOf(5), MaxPageSize: 10}
	result, totals, err := engine.Query(context.Background(), fakeCriteria{MinValue: 10000}, 4, 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.PageNumber != 1 || result.TotalCount != 0 || len(result.Items) != 0 {
		t.Fatalf("unexpected empty result %+v", result)
	}
	if totals != nil {
		t.Fatalf("totals must be skipped for empty sets, got %v", totals)
	}
}

func TestQueryPageSizeClampedServerSide(t *testing.T) {
	engine := Engine[fakeCriteria, fakeRow]{Source: sourceOf(50), MinPageSize: 5, MaxPageSize: 10, DefaultPageSize: 10}
	result, _, err := engine.Query(context.Background(), fakeCriteria{}, 1, 100000)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.PageSize != 10 {
		t.Fatalf("pageSize = %d, want clamped 10", result.PageSize)
	}
	result, _, err = engine.Query(context.Background(), fakeCriteria{}, 1, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.PageSize != 10 {
		t.Fatalf("pageSize = %d, want default 10", result.PageSize)
	}
}

func TestAggregatesMatchExport(t *testing.T) {
	engine := Engine[fakeCriteria, fakeRow]{Source: sourceOf(20), MaxPageSize: 5, ExportCap: 100}
	criteria := fakeCriteria{MinValue: 500}

	_, totals, err := engine.Query(context.Background(), criteria, 2, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	export, err := engine.Export(context.Background(), criteria)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var exported int64
	for _, row := range export.Rows {
		exported += row.Value
	}
	if totals["value"] != exported {
		t.Fatalf("aggregate %d != export sum %d", totals["value"], exported)
	}
}

func TestExportTruncatesAtCap(t *testing.T) {
	engine := Engine[fakeCriteria, fakeRow]{Source: sourceOf(30), ExportCap: 10}
	export, err := engine.Export(context.Background(), fakeCriteria{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !export.Truncated {
		t.Fatal("expected truncation signal")
	}
	if export.RowCount != 10 {
		t.Fatalf("rowCount = %d, want 10", export.RowCount)
	}
	if export.TotalMatching != 30 {
		t.Fatalf("totalMatching = %d, want 30", export.TotalMatching)
	}
}
