package report

import (
	"context"
	"net/url"

	"github.com/noah-isme/backend-pasar/internal/common"
	"github.com/noah-isme/backend-pasar/internal/config"
	"github.com/noah-isme/backend-pasar/internal/obs"
	"github.com/noah-isme/backend-pasar/internal/query"
)

// Sources bundles the injected row sources, one per report domain.
type Sources struct {
	Orders  query.Source[OrderCriteria, OrderRow]
	Payouts query.Source[PayoutCriteria, PayoutRow]
	Audit   query.Source[AuditCriteria, AuditRow]
	Returns query.Source[ReturnCriteria, ReturnRow]
}

// Service runs the report query pipeline over injected row sources. Page size
// is clamped server-side so exportable reports never trust client input.
type Service struct {
	orders  query.Engine[OrderCriteria, OrderRow]
	payouts query.Engine[PayoutCriteria, PayoutRow]
	audit   query.Engine[AuditCriteria, AuditRow]
	returns query.Engine[ReturnCriteria, ReturnRow]

	defaultPage int
}

// NewService builds the report service from configuration and row sources.
func NewService(cfg config.Config, src Sources) *Service {
	return &Service{
		orders: query.Engine[OrderCriteria, OrderRow]{
			Source:          src.Orders,
			DefaultPageSize: cfg.DefaultLimit,
			MaxPageSize:     cfg.MaxLimit,
			ExportCap:       cfg.ExportRowCap,
		},
		payouts: query.Engine[PayoutCriteria, PayoutRow]{
			Source:          src.Payouts,
			DefaultPageSize: cfg.DefaultLimit,
			MaxPageSize:     cfg.MaxLimit,
			ExportCap:       cfg.ExportRowCap,
		},
		audit: query.Engine[AuditCriteria, AuditRow]{
			Source:          src.Audit,
			DefaultPageSize: cfg.DefaultLimit,
			MaxPageSize:     cfg.MaxLimit,
			ExportCap:       cfg.ExportRowCap,
		},
		returns: query.Engine[ReturnCriteria, ReturnRow]{
			Source:          src.Returns,
			DefaultPageSize: cfg.DefaultLimit,
			MaxPageSize:     cfg.MaxLimit,
			ExportCap:       cfg.ExportRowCap,
		},
		defaultPage: cfg.DefaultPage,
	}
}

// PageParams extracts page number and size from raw query params. The engine
// clamps both again, this only applies defaults.
func (s *Service) PageParams(values url.Values) (page, size int) {
	def := s.defaultPage
	if def < 1 {
		def = 1
	}
	page = common.AtoiDefault(values.Get("page"), def)
	size = common.AtoiDefault(values.Get("limit"), 0)
	return page, size
}

// Orders returns one page of the order/commission report with full-set totals.
func (s *Service) Orders(ctx context.Context, criteria OrderCriteria, page, size int) (query.PagedResult[OrderRow], query.Totals, error) {
	obs.Count(obs.ReportQueryTotal, "orders")
	return s.orders.Query(ctx, criteria, page, size)
}

// OrdersExport returns all matching order rows up to the configured cap.
func (s *Service) OrdersExport(ctx context.Context, criteria OrderCriteria) (query.ExportResult[OrderRow], error) {
	result, err := s.orders.Export(ctx, criteria)
	recordExport("orders", result.RowCount, result.Truncated, err)
	return result, err
}

// Payouts returns one page of the payout listing with full-set totals.
func (s *Service) Payouts(ctx context.Context, criteria PayoutCriteria, page, size int) (query.PagedResult[PayoutRow], query.Totals, error) {
	obs.Count(obs.ReportQueryTotal, "payouts")
	return s.payouts.Query(ctx, criteria, page, size)
}

// PayoutsExport returns all matching payout rows up to the configured cap.
func (s *Service) PayoutsExport(ctx context.Context, criteria PayoutCriteria) (query.ExportResult[PayoutRow], error) {
	result, err := s.payouts.Export(ctx, criteria)
	recordExport("payouts", result.RowCount, result.Truncated, err)
	return result, err
}

// Audit returns one page of the admin audit log.
func (s *Service) Audit(ctx context.Context, criteria AuditCriteria, page, size int) (query.PagedResult[AuditRow], query.Totals, error) {
	obs.Count(obs.ReportQueryTotal, "audit")
	return s.audit.Query(ctx, criteria, page, size)
}

// AuditExport returns all matching audit rows up to the configured cap.
func (s *Service) AuditExport(ctx context.Context, criteria AuditCriteria) (query.ExportResult[AuditRow], error) {
	result, err := s.audit.Export(ctx, criteria)
	recordExport("audit", result.RowCount, result.Truncated, err)
	return result, err
}

// Returns returns one page of the return case listing with refund totals.
func (s *Service) Returns(ctx context.Context, criteria ReturnCriteria, page, size int) (query.PagedResult[ReturnRow], query.Totals, error) {
	obs.Count(obs.ReportQueryTotal, "returns")
	return s.returns.Query(ctx, criteria, page, size)
}

// ReturnsExport returns all matching return rows up to the configured cap.
func (s *Service) ReturnsExport(ctx context.Context, criteria ReturnCriteria) (query.ExportResult[ReturnRow], error) {
	result, err := s.returns.Export(ctx, criteria)
	recordExport("returns", result.RowCount, result.Truncated, err)
	return result, err
}

func recordExport(report string, rows int, truncated bool, err error) {
	if err != nil {
		return
	}
	obs.Observe(obs.ReportExportRows, float64(rows), report)
	if truncated {
		obs.Count(obs.ReportExportTruncated, report)
	}
}
