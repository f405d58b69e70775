package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgSource reads catalog data from PostgreSQL. It serves both the public
// listing and the product lookup cart mutations depend on.
type PgSource struct {
	Pool *pgxpool.Pool
}

func listConds(filter ListFilter) ([]string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, clauseArgs ...any) {
		for _, arg := range clauseArgs {
			args = append(args, arg)
			clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses = append(clauses, clause)
	}
	clauses = append(clauses, "p.published")
	if filter.Query != "" {
		add("(p.title ILIKE '%' || ? || '%' OR p.slug ILIKE '%' || ? || '%')", filter.Query, filter.Query)
	}
	if filter.Category != "" {
		add("p.category_slug = ?", filter.Category)
	}
	if filter.Seller != "" {
		add("p.seller_id = ?", filter.Seller)
	}
	if filter.MinPrice != nil {
		add("p.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("p.price <= ?", *filter.MaxPrice)
	}
	if filter.InStock != nil {
		if *filter.InStock {
			clauses = append(clauses, "p.stock > 0")
		} else {
			clauses = append(clauses, "p.stock <= 0")
		}
	}
	return clauses, args
}

// listOrder maps the normalised sort token to an ORDER BY clause. Tokens are
// the colon form produced by the service; anything else falls back to the
// best-seller default.
func listOrder(sort string) string {
	switch sort {
	case "price:asc":
		return "p.price ASC, p.created_at DESC, p.id DESC"
	case "price:desc":
		return "p.price DESC, p.created_at DESC, p.id DESC"
	case "title:asc":
		return "p.title ASC, p.created_at DESC, p.id DESC"
	case "title:desc":
		return "p.title DESC, p.created_at DESC, p.id DESC"
	case "newest":
		return "p.created_at DESC, p.id DESC"
	default:
		return "p.sold_count DESC, p.created_at DESC, p.id DESC"
	}
}

// CountProducts returns the matching count for the listing filter.
func (s PgSource) CountProducts(ctx context.Context, filter ListFilter) (int64, error) {
	clauses, args := listConds(filter)
	var total int64
	sql := "SELECT COUNT(*) FROM products p WHERE " + strings.Join(clauses, " AND ")
	if err := s.Pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// ListProducts returns one deterministically ordered listing page.
func (s PgSource) ListProducts(ctx context.Context, filter ListFilter, limit, offset int) ([]ProductListItem, error) {
	clauses, args := listConds(filter)
	args = append(args, limit, offset)
	sql := fmt.Sprintf(`SELECT p.id, p.seller_id, p.title, p.slug, p.price, p.compare_at,
		p.stock > 0, p.thumbnail
	FROM products p
	WHERE %s
	ORDER BY %s LIMIT $%d OFFSET $%d`,
		strings.Join(clauses, " AND "), listOrder(filter.Sort), len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]ProductListItem, 0, limit)
	for rows.Next() {
		var item ProductListItem
		if err := rows.Scan(&item.ID, &item.SellerID, &item.Title, &item.Slug,
			&item.Price, &item.CompareAt, &item.InStock, &item.Thumbnail); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

// GetProductByID loads one product with its variant list for availability
// resolution. Missing products report ErrNotFound.
func (s PgSource) GetProductByID(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.Pool.QueryRow(ctx,
		`SELECT p.id, p.seller_id, p.title, p.slug, p.price, p.stock
		FROM products p WHERE p.id = $1 AND p.published`, id,
	).Scan(&p.ID, &p.SellerID, &p.Title, &p.Slug, &p.Price, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}

	rows, err := s.Pool.Query(ctx,
		`SELECT v.sku, v.price, v.stock, v.attributes
		FROM product_variants v WHERE v.product_id = $1`, id)
	if err != nil {
		return Product{}, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.SKU, &v.Price, &v.Stock, &v.Attributes); err != nil {
			return Product{}, fmt.Errorf("scan variant: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return Product{}, fmt.Errorf("iterate variants: %w", err)
	}
	return p, nil
}
