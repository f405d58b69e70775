package pgsource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pasar/internal/query"
	"github.com/noah-isme/backend-pasar/internal/report"
)

// OrderSource reads the order/commission report from PostgreSQL.
type OrderSource struct {
	Pool *pgxpool.Pool
}

const orderColumns = `o.id, o.seller_id, o.buyer_name, o.status, o.payment_status,
	o.gross_amount, o.commission_amount, o.gross_amount - o.commission_amount,
	o.created_at`

func orderConds(criteria report.OrderCriteria) *cond {
	c := &cond{}
	if criteria.SellerID != "" {
		c.add("o.seller_id = ?", criteria.SellerID)
	}
	if criteria.Range.Start != nil {
		c.add("o.created_at >= ?", *criteria.Range.Start)
	}
	if criteria.Range.End != nil {
		c.add("o.created_at <= ?", *criteria.Range.End)
	}
	if len(criteria.Statuses) > 0 {
		c.add("o.status = ANY(?)", criteria.Statuses)
	}
	if len(criteria.PaymentStatuses) > 0 {
		c.add("o.payment_status = ANY(?)", criteria.PaymentStatuses)
	}
	if criteria.Search != "" {
		c.add("(o.id::text ILIKE '%' || ? || '%' OR o.buyer_name ILIKE '%' || ? || '%')",
			criteria.Search, criteria.Search)
	}
	return c
}

// QueryPage returns one deterministically ordered page plus the matching count.
func (s OrderSource) QueryPage(ctx context.Context, criteria report.OrderCriteria, limit, offset int) ([]report.OrderRow, int64, error) {
	c := orderConds(criteria)
	var total int64
	countSQL := "SELECT COUNT(*) FROM orders o" + c.where()
	if err := s.Pool.QueryRow(ctx, countSQL, c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	sql := "SELECT " + orderColumns + " FROM orders o" + c.where() +
		" ORDER BY o.created_at DESC, o.id DESC LIMIT " + c.next(limit) + " OFFSET " + c.next(offset)
	rows, err := s.Pool.Query(ctx, sql, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]report.OrderRow, 0, limit)
	for rows.Next() {
		var row report.OrderRow
		if err := rows.Scan(&row.OrderID, &row.SellerID, &row.BuyerName, &row.Status,
			&row.PaymentStatus, &row.Gross, &row.Commission, &row.Net, &row.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return out, total, nil
}

// QueryAll returns up to limit rows plus the true matching count.
func (s OrderSource) QueryAll(ctx context.Context, criteria report.OrderCriteria, limit int) ([]report.OrderRow, int64, error) {
	rows, total, err := s.QueryPage(ctx, criteria, limit, 0)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Aggregate sums gross, commission and net over the full filtered set.
func (s OrderSource) Aggregate(ctx context.Context, criteria report.OrderCriteria) (query.Totals, error) {
	c := orderConds(criteria)
	sql := `SELECT COALESCE(SUM(o.gross_amount), 0),
		COALESCE(SUM(o.commission_amount), 0),
		COALESCE(SUM(o.gross_amount - o.commission_amount), 0)
	FROM orders o` + c.where()
	var gross, commission, net int64
	if err := s.Pool.QueryRow(ctx, sql, c.args...).Scan(&gross, &commission, &net); err != nil {
		return nil, fmt.Errorf("aggregate orders: %w", err)
	}
	return query.Totals{"gross": gross, "commission": commission, "net": net}, nil
}
