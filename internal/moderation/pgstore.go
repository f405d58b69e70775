package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pasar/internal/common"
)

// PgQueueSource reads the moderation queue from PostgreSQL. Both target kinds
// land in one moderation_queue table with a target_kind discriminator.
type PgQueueSource struct {
	Pool *pgxpool.Pool
}

func queueConds(criteria QueueCriteria) ([]string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, clauseArgs ...any) {
		for _, arg := range clauseArgs {
			args = append(args, arg)
			clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses = append(clauses, clause)
	}
	if criteria.Kind != "" {
		add("m.target_kind = ?", string(criteria.Kind))
	}
	if len(criteria.Statuses) > 0 {
		add("m.status = ANY(?)", criteria.Statuses)
	}
	if criteria.Range.Start != nil {
		add("m.created_at >= ?", *criteria.Range.Start)
	}
	if criteria.Range.End != nil {
		add("m.created_at <= ?", *criteria.Range.End)
	}
	if criteria.FlaggedOnly {
		clauses = append(clauses, "m.flagged")
	}
	if criteria.Search != "" {
		add("m.excerpt ILIKE '%' || ? || '%'", criteria.Search)
	}
	return clauses, args
}

func queueWhere(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

// QueryPage returns one deterministically ordered page plus the matching count.
func (s PgQueueSource) QueryPage(ctx context.Context, criteria QueueCriteria, limit, offset int) ([]QueueRow, int64, error) {
	clauses, args := queueConds(criteria)
	var total int64
	if err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM moderation_queue m"+queueWhere(clauses), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count moderation queue: %w", err)
	}

	args = append(args, limit, offset)
	sql := fmt.Sprintf(`SELECT m.id, m.target_kind, m.target_id, m.author_id, m.status,
		m.flagged, m.report_count, COALESCE(m.excerpt, ''), m.created_at
	FROM moderation_queue m%s
	ORDER BY m.created_at DESC, m.id DESC LIMIT $%d OFFSET $%d`,
		queueWhere(clauses), len(args)-1, len(args))
	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list moderation queue: %w", err)
	}
	defer rows.Close()

	out := make([]QueueRow, 0, limit)
	for rows.Next() {
		var row QueueRow
		var kind string
		if err := rows.Scan(&row.ItemID, &kind, &row.Target.ID, &row.AuthorID, &row.Status,
			&row.Flagged, &row.ReportCount, &row.Excerpt, &row.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan moderation row: %w", err)
		}
		row.Target.Kind = TargetKind(kind)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate moderation queue: %w", err)
	}
	return out, total, nil
}

// QueryAll returns up to limit rows plus the true matching count.
func (s PgQueueSource) QueryAll(ctx context.Context, criteria QueueCriteria, limit int) ([]QueueRow, int64, error) {
	return s.QueryPage(ctx, criteria, limit, 0)
}

// PgDecisionStore applies verdicts to the moderated content rows.
type PgDecisionStore struct {
	Pool *pgxpool.Pool
}

// ApplyDecision transitions the target's moderation status, switching table
// on the target kind.
func (s PgDecisionStore) ApplyDecision(ctx context.Context, target Target, decision Decision) error {
	var table string
	switch target.Kind {
	case KindProduct:
		table = "product_reviews"
	case KindSeller:
		table = "seller_ratings"
	default:
		return fmt.Errorf("unknown target kind %q: %w", target.Kind, common.ErrValidation)
	}
	tag, err := s.Pool.Exec(ctx,
		"UPDATE "+table+" SET moderation_status = $1, moderated_at = now() WHERE id = $2",
		string(decision), target.ID,
	)
	if err != nil {
		return fmt.Errorf("apply decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", target.Kind, target.ID, common.ErrNotFound)
	}
	return nil
}
