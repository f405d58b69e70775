// Package pgsource implements the report row sources over PostgreSQL. Each
// source owns its SQL and the deterministic ordering contract (created_at
// descending, then id descending); paging, totals and export capping stay in
// the query engine.
package pgsource

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sources bundles the pg-backed row sources over one pool.
type Sources struct {
	Orders  OrderSource
	Payouts PayoutSource
	Audit   AuditSource
	Returns ReturnSource
}

// New builds all report row sources from a shared pool.
func New(pool *pgxpool.Pool) Sources {
	return Sources{
		Orders:  OrderSource{Pool: pool},
		Payouts: PayoutSource{Pool: pool},
		Audit:   AuditSource{Pool: pool},
		Returns: ReturnSource{Pool: pool},
	}
}

// cond accumulates WHERE clauses with positional args.
type cond struct {
	clauses []string
	args    []any
}

// add appends a clause, replacing each ? with the next positional placeholder.
func (c *cond) add(clause string, args ...any) {
	for _, arg := range args {
		c.args = append(c.args, arg)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(c.args)), 1)
	}
	c.clauses = append(c.clauses, clause)
}

// next returns the placeholder for one more appended arg, for LIMIT/OFFSET.
func (c *cond) next(arg any) string {
	c.args = append(c.args, arg)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *cond) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}
