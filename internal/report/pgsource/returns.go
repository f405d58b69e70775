package pgsource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pasar/internal/query"
	"github.com/noah-isme/backend-pasar/internal/report"
)

// ReturnSource reads the return case listing from PostgreSQL.
type ReturnSource struct {
	Pool *pgxpool.Pool
}

func returnConds(criteria report.ReturnCriteria) *cond {
	c := &cond{}
	if criteria.SellerID != "" {
		c.add("r.seller_id = ?", criteria.SellerID)
	}
	if criteria.Range.Start != nil {
		c.add("r.created_at >= ?", *criteria.Range.Start)
	}
	if criteria.Range.End != nil {
		c.add("r.created_at <= ?", *criteria.Range.End)
	}
	if len(criteria.Statuses) > 0 {
		c.add("r.status = ANY(?)", criteria.Statuses)
	}
	if criteria.Search != "" {
		c.add("(r.order_id::text ILIKE '%' || ? || '%' OR r.reason ILIKE '%' || ? || '%')",
			criteria.Search, criteria.Search)
	}
	return c
}

// QueryPage returns one deterministically ordered page plus the matching count.
func (s ReturnSource) QueryPage(ctx context.Context, criteria report.ReturnCriteria, limit, offset int) ([]report.ReturnRow, int64, error) {
	c := returnConds(criteria)
	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM return_cases r"+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count return cases: %w", err)
	}

	sql := `SELECT r.id, r.order_id, r.seller_id, r.status, r.reason, r.refund_amount, r.created_at
	FROM return_cases r` + c.where() +
		" ORDER BY r.created_at DESC, r.id DESC LIMIT " + c.next(limit) + " OFFSET " + c.next(offset)
	rows, err := s.Pool.Query(ctx, sql, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list return cases: %w", err)
	}
	defer rows.Close()

	out := make([]report.ReturnRow, 0, limit)
	for rows.Next() {
		var row report.ReturnRow
		if err := rows.Scan(&row.CaseID, &row.OrderID, &row.SellerID, &row.Status,
			&row.Reason, &row.RefundAmount, &row.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan return row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate return cases: %w", err)
	}
	return out, total, nil
}

// QueryAll returns up to limit rows plus the true matching count.
func (s ReturnSource) QueryAll(ctx context.Context, criteria report.ReturnCriteria, limit int) ([]report.ReturnRow, int64, error) {
	return s.QueryPage(ctx, criteria, limit, 0)
}

// Aggregate sums refund amounts over the full filtered set.
func (s ReturnSource) Aggregate(ctx context.Context, criteria report.ReturnCriteria) (query.Totals, error) {
	c := returnConds(criteria)
	sql := "SELECT COALESCE(SUM(r.refund_amount), 0) FROM return_cases r" + c.where()
	var refund int64
	if err := s.Pool.QueryRow(ctx, sql, c.args...).Scan(&refund); err != nil {
		return nil, fmt.Errorf("aggregate return cases: %w", err)
	}
	return query.Totals{"refund": refund}, nil
}
