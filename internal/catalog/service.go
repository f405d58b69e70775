package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/backend-pasar/internal/common"
	"github.com/noah-isme/backend-pasar/internal/normalize"
)

// ListFilter captures normalized filters for the public product listing.
type ListFilter struct {
	Query    string
	Category string
	Seller   string
	MinPrice *int64
	MaxPrice *int64
	InStock  *bool
	Sort     string
}

// ListParams couples a filter with pagination inputs.
type ListParams struct {
	Filter ListFilter
	Page   int
	Limit  int
}

// ProductListItem represents an entry in the public listing.
type ProductListItem struct {
	ID        string  `json:"id"`
	SellerID  string  `json:"sellerId"`
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	Price     int64   `json:"price"`
	CompareAt *int64  `json:"compareAt,omitempty"`
	InStock   bool    `json:"inStock"`
	Thumbnail *string `json:"thumbnail,omitempty"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductListItem
	Total int64
	Page  int
	Limit int
}

// Source supplies product listing rows. Implementations must order rows
// deterministically, breaking sort ties by creation time then id descending.
type Source interface {
	CountProducts(ctx context.Context, filter ListFilter) (int64, error)
	ListProducts(ctx context.Context, filter ListFilter, limit, offset int) ([]ProductListItem, error)
}

// Service orchestrates catalog queries, filter normalization, and caching.
type Service struct {
	source       Source
	cache        *Cache
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Source       Source
	Cache        *Cache
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("catalog: source is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		source:       cfg.Source,
		cache:        cfg.Cache,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
// Out-of-range page and limit values are clamped rather than rejected, and
// unparseable optional filters are dropped.
func (s *Service) ParseListParams(values url.Values) ListParams {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Filter.Query = normalize.SearchTerm(values.Get("q"))
	params.Filter.Category = normalize.Text(values.Get("category"))
	params.Filter.Seller = normalize.Text(values.Get("seller"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page >= 1 {
			params.Page = page
		}
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit >= 1 {
			params.Limit = limit
		}
	}
	params.Limit = common.ClampInt(params.Limit, 1, s.maxLimit)

	if v := strings.TrimSpace(values.Get("minPrice")); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.Filter.MinPrice = &parsed
		}
	}
	if v := strings.TrimSpace(values.Get("maxPrice")); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.Filter.MaxPrice = &parsed
		}
	}
	if params.Filter.MinPrice != nil && params.Filter.MaxPrice != nil && *params.Filter.MinPrice > *params.Filter.MaxPrice {
		params.Filter.MinPrice, params.Filter.MaxPrice = params.Filter.MaxPrice, params.Filter.MinPrice
	}

	if v := strings.TrimSpace(values.Get("inStock")); v != "" {
		if b, err := parseBool(v); err == nil {
			params.Filter.InStock = &b
		}
	}

	params.Filter.Sort = normalizeSort(values.Get("sort"))
	return params
}

// ListProducts returns a filtered product page with pagination metadata.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = s.defaultLimit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}

	key, shouldUseCache := s.listCacheKey(params)
	if shouldUseCache && s.cache != nil {
		var cached cachedList
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return ProductListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	total, err := s.source.CountProducts(ctx, params.Filter)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("count products: %w", err)
	}
	if total == 0 {
		return ProductListResult{Items: []ProductListItem{}, Total: 0, Page: 1, Limit: params.Limit}, nil
	}
	offset := (params.Page - 1) * params.Limit
	items, err := s.source.ListProducts(ctx, params.Filter, params.Limit, offset)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []ProductListItem{}
	}
	result := ProductListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if shouldUseCache && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	}
	return result, nil
}

type cachedList struct {
	Items []ProductListItem `json:"items"`
	Total int64             `json:"total"`
}

// Only the unfiltered first page is cached; every other combination goes to
// the source so filters always see live data.
func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if params.Page != s.defaultPage || params.Limit != s.defaultLimit {
		return "", false
	}
	f := params.Filter
	if f.Query != "" || f.Category != "" || f.Seller != "" || f.MinPrice != nil || f.MaxPrice != nil || f.InStock != nil || f.Sort != "" {
		return "", false
	}
	return "catalog:products:list:popular", true
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %s", value)
	}
}

func normalizeSort(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "price:asc", "price:desc", "title:asc", "title:desc", "newest":
		return s
	default:
		return ""
	}
}
