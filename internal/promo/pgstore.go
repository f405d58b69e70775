package promo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore resolves promo rules from PostgreSQL.
type PgStore struct {
	Pool *pgxpool.Pool
}

// GetRuleByCode loads one rule, matching the code case-insensitively.
func (s PgStore) GetRuleByCode(ctx context.Context, code string) (Rule, error) {
	if s.Pool == nil {
		return Rule{}, errors.New("promo store not configured")
	}
	var r Rule
	err := s.Pool.QueryRow(ctx,
		`SELECT code, kind, value, percent_bps, min_spend, usage_limit, used_count,
			valid_from, valid_to,
			COALESCE(seller_ids, '{}'), COALESCE(product_ids, '{}')
		FROM promo_rules WHERE LOWER(code) = LOWER($1)`, code,
	).Scan(&r.Code, &r.Kind, &r.Value, &r.PercentBps, &r.MinSpend, &r.UsageLimit,
		&r.UsedCount, &r.ValidFrom, &r.ValidTo, &r.SellerIDs, &r.ProductIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, fmt.Errorf("code %s: %w", code, ErrUnknownCode)
		}
		return Rule{}, fmt.Errorf("get promo rule: %w", err)
	}
	return r, nil
}
