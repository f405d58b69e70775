package pgsource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pasar/internal/query"
	"github.com/noah-isme/backend-pasar/internal/report"
)

// PayoutSource reads the seller payout listing from PostgreSQL.
type PayoutSource struct {
	Pool *pgxpool.Pool
}

func payoutConds(criteria report.PayoutCriteria) *cond {
	c := &cond{}
	if criteria.SellerID != "" {
		c.add("p.seller_id = ?", criteria.SellerID)
	}
	if criteria.Range.Start != nil {
		c.add("p.created_at >= ?", *criteria.Range.Start)
	}
	if criteria.Range.End != nil {
		c.add("p.created_at <= ?", *criteria.Range.End)
	}
	if len(criteria.Statuses) > 0 {
		c.add("p.status = ANY(?)", criteria.Statuses)
	}
	return c
}

// QueryPage returns one deterministically ordered page plus the matching count.
func (s PayoutSource) QueryPage(ctx context.Context, criteria report.PayoutCriteria, limit, offset int) ([]report.PayoutRow, int64, error) {
	c := payoutConds(criteria)
	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM payouts p"+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payouts: %w", err)
	}

	sql := `SELECT p.id, p.seller_id, p.status, p.amount, p.fee, p.amount - p.fee, p.created_at
	FROM payouts p` + c.where() +
		" ORDER BY p.created_at DESC, p.id DESC LIMIT " + c.next(limit) + " OFFSET " + c.next(offset)
	rows, err := s.Pool.Query(ctx, sql, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	out := make([]report.PayoutRow, 0, limit)
	for rows.Next() {
		var row report.PayoutRow
		if err := rows.Scan(&row.PayoutID, &row.SellerID, &row.Status, &row.Amount,
			&row.Fee, &row.Net, &row.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan payout row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payouts: %w", err)
	}
	return out, total, nil
}

// QueryAll returns up to limit rows plus the true matching count.
func (s PayoutSource) QueryAll(ctx context.Context, criteria report.PayoutCriteria, limit int) ([]report.PayoutRow, int64, error) {
	return s.QueryPage(ctx, criteria, limit, 0)
}

// Aggregate sums payout amount, fee and net over the full filtered set.
func (s PayoutSource) Aggregate(ctx context.Context, criteria report.PayoutCriteria) (query.Totals, error) {
	c := payoutConds(criteria)
	sql := `SELECT COALESCE(SUM(p.amount), 0), COALESCE(SUM(p.fee), 0),
		COALESCE(SUM(p.amount - p.fee), 0)
	FROM payouts p` + c.where()
	var amount, fee, net int64
	if err := s.Pool.QueryRow(ctx, sql, c.args...).Scan(&amount, &fee, &net); err != nil {
		return nil, fmt.Errorf("aggregate payouts: %w", err)
	}
	return query.Totals{"amount": amount, "fee": fee, "net": net}, nil
}
