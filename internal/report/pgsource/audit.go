package pgsource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pasar/internal/report"
)

// AuditSource reads the admin audit log from PostgreSQL.
type AuditSource struct {
	Pool *pgxpool.Pool
}

func auditConds(criteria report.AuditCriteria) *cond {
	c := &cond{}
	if criteria.ActorID != "" {
		c.add("a.actor_id = ?", criteria.ActorID)
	}
	if criteria.Action != "" {
		c.add("a.action = ?", criteria.Action)
	}
	if criteria.Range.Start != nil {
		c.add("a.created_at >= ?", *criteria.Range.Start)
	}
	if criteria.Range.End != nil {
		c.add("a.created_at <= ?", *criteria.Range.End)
	}
	if criteria.Success != nil {
		c.add("a.success = ?", *criteria.Success)
	}
	if criteria.Search != "" {
		c.add("(a.target_id ILIKE '%' || ? || '%' OR a.detail ILIKE '%' || ? || '%')",
			criteria.Search, criteria.Search)
	}
	return c
}

// QueryPage returns one deterministically ordered page plus the matching count.
func (s AuditSource) QueryPage(ctx context.Context, criteria report.AuditCriteria, limit, offset int) ([]report.AuditRow, int64, error) {
	c := auditConds(criteria)
	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_log a"+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	sql := `SELECT a.id, a.actor_id, a.action, a.target_kind, a.target_id, a.success,
		COALESCE(a.detail, ''), a.created_at
	FROM audit_log a` + c.where() +
		" ORDER BY a.created_at DESC, a.id DESC LIMIT " + c.next(limit) + " OFFSET " + c.next(offset)
	rows, err := s.Pool.Query(ctx, sql, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	out := make([]report.AuditRow, 0, limit)
	for rows.Next() {
		var row report.AuditRow
		if err := rows.Scan(&row.EntryID, &row.ActorID, &row.Action, &row.TargetKind,
			&row.TargetID, &row.Success, &row.Detail, &row.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, total, nil
}

// QueryAll returns up to limit rows plus the true matching count.
func (s AuditSource) QueryAll(ctx context.Context, criteria report.AuditCriteria, limit int) ([]report.AuditRow, int64, error) {
	return s.QueryPage(ctx, criteria, limit, 0)
}
