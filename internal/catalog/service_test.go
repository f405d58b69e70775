package catalog_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pasar/internal/catalog"
)

type stubSource struct {
	countCalls int
	listCalls  int
	items      []catalog.ProductListItem
}

func (s *stubSource) CountProducts(context.Context, catalog.ListFilter) (int64, error) {
	s.countCalls++
	return int64(len(s.items)), nil
}

func (s *stubSource) ListProducts(_ context.Context, _ catalog.ListFilter, limit, offset int) ([]catalog.ProductListItem, error) {
	s.listCalls++
	if offset >= len(s.items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[offset:end], nil
}

func newService(t *testing.T, source catalog.Source, cache *catalog.Cache) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Source:       source,
		Cache:        cache,
		DefaultPage:  1,
		DefaultLimit: 2,
		MaxLimit:     10,
	})
	require.NoError(t, err)
	return svc
}

func TestParseListParamsClampsAndDrops(t *testing.T) {
	svc := newService(t, &stubSource{}, nil)
	values := url.Values{}
	values.Set("page", "-4")
	values.Set("limit", "9999")
	values.Set("minPrice", "5000")
	values.Set("maxPrice", "1000")
	values.Set("inStock", "bogus")
	values.Set("sort", "price:asc")
	values.Set("q", "  sepatu lari  ")

	params := svc.ParseListParams(values)
	require.Equal(t, 1, params.Page)
	require.Equal(t, 10, params.Limit)
	require.Equal(t, "sepatu lari", params.Filter.Query)
	require.Nil(t, params.Filter.InStock)
	require.Equal(t, "price:asc", params.Filter.Sort)
	// inverted price bounds are swapped, not rejected
	require.Equal(t, int64(1000), *params.Filter.MinPrice)
	require.Equal(t, int64(5000), *params.Filter.MaxPrice)
}

func TestListProductsEmptyResultReportsPageOne(t *testing.T) {
	svc := newService(t, &stubSource{}, nil)
	result, err := svc.ListProducts(context.Background(), catalog.ListParams{Page: 7, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 1, result.Page)
	require.Empty(t, result.Items)
	require.EqualValues(t, 0, result.Total)
}

func TestListProductsDefaultPageCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	source := &stubSource{items: []catalog.ProductListItem{
		{ID: "p1", Title: "Kemeja"},
		{ID: "p2", Title: "Celana"},
		{ID: "p3", Title: "Topi"},
	}}
	svc := newService(t, source, catalog.NewCache(rdb, time.Minute))

	params := catalog.ListParams{Page: 1, Limit: 2}
	_, err = svc.ListProducts(context.Background(), params)
	require.NoError(t, err)
	_, err = svc.ListProducts(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, 1, source.countCalls, "second default-page call must hit the cache")

	// filtered calls bypass the cache entirely
	filtered := catalog.ListParams{Page: 1, Limit: 2, Filter: catalog.ListFilter{Query: "topi"}}
	_, err = svc.ListProducts(context.Background(), filtered)
	require.NoError(t, err)
	require.Equal(t, 2, source.countCalls)
}
