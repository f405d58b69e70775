package report

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pasar/internal/common"
	"github.com/noah-isme/backend-pasar/internal/query"
	"github.com/noah-isme/backend-pasar/internal/seller"
)

// Handler wires the report service to HTTP. Seller-scoped reports read the
// resolved seller from the request context; the audit log is admin-wide.
type Handler struct {
	Svc     *Service
	Exports Enqueuer
	Logger  zerolog.Logger
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "report service not configured", nil)
		return false
	}
	return true
}

func pageEnvelope[T any](result query.PagedResult[T], totals query.Totals) map[string]any {
	meta := map[string]any{
		"page":       result.PageNumber,
		"pageSize":   result.PageSize,
		"totalCount": result.TotalCount,
		"totalPages": result.TotalPages(),
	}
	body := map[string]any{
		"data": result.Items,
		"meta": meta,
	}
	if len(totals) > 0 {
		body["totals"] = totals
	}
	return body
}

// Orders serves one page of the seller order/commission report.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sellerID, _ := seller.FromContext(r.Context())
	criteria := ParseOrderCriteria(r.URL.Query(), sellerID)
	page, size := h.Svc.PageParams(r.URL.Query())
	result, totals, err := h.Svc.Orders(r.Context(), criteria, page, size)
	if err != nil {
		h.writeError(w, err, "unable to query orders")
		return
	}
	common.JSON(w, http.StatusOK, pageEnvelope(result, totals))
}

// OrdersExport streams the capped order export as CSV, or enqueues a
// background export when async=1.
func (h *Handler) OrdersExport(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sellerID, _ := seller.FromContext(r.Context())
	criteria := ParseOrderCriteria(r.URL.Query(), sellerID)
	if r.URL.Query().Get("async") == "1" {
		h.enqueue(w, r, "orders", criteria)
		return
	}
	result, err := h.Svc.OrdersExport(r.Context(), criteria)
	if err != nil {
		h.writeError(w, err, "unable to export orders")
		return
	}
	writeCSVHeaders(w, "orders.csv", result.Truncated, result.TotalMatching)
	if err := WriteOrdersCSV(w, result.Rows); err != nil {
		h.Logger.Error().Err(err).Msg("stream orders export")
	}
}

// Payouts serves one page of the seller payout listing.
func (h *Handler) Payouts(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sellerID, _ := seller.FromContext(r.Context())
	criteria := ParsePayoutCriteria(r.URL.Query(), sellerID)
	page, size := h.Svc.PageParams(r.URL.Query())
	result, totals, err := h.Svc.Payouts(r.Context(), criteria, page, size)
	if err != nil {
		h.writeError(w, err, "unable to query payouts")
		return
	}
	common.JSON(w, http.StatusOK, pageEnvelope(result, totals))
}

// PayoutsExport streams the capped payout export as CSV.
func (h *Handler) PayoutsExport(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sellerID, _ := seller.FromContext(r.Context())
	criteria := ParsePayoutCriteria(r.URL.Query(), sellerID)
	if r.URL.Query().Get("async") == "1" {
		h.enqueue(w, r, "payouts", criteria)
		return
	}
	result, err := h.Svc.PayoutsExport(r.Context(), criteria)
	if err != nil {
		h.writeError(w, err, "unable to export payouts")
		return
	}
	writeCSVHeaders(w, "payouts.csv", result.Truncated, result.TotalMatching)
	if err := WritePayoutsCSV(w, result.Rows); err != nil {
		h.Logger.Error().Err(err).Msg("stream payouts export")
	}
}

// Audit serves one page of the admin audit log.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	criteria := ParseAuditCriteria(r.URL.Query())
	page, size := h.Svc.PageParams(r.URL.Query())
	result, totals, err := h.Svc.Audit(r.Context(), criteria, page, size)
	if err != nil {
		h.writeError(w, err, "unable to query audit log")
		return
	}
	common.JSON(w, http.StatusOK, pageEnvelope(result, totals))
}

// AuditExport streams the capped audit export as CSV.
func (h *Handler) AuditExport(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	criteria := ParseAuditCriteria(r.URL.Query())
	if r.URL.Query().Get("async") == "1" {
		h.enqueue(w, r, "audit", criteria)
		return
	}
	result, err := h.Svc.AuditExport(r.Context(), criteria)
	if err != nil {
		h.writeError(w, err, "unable to export audit log")
		return
	}
	writeCSVHeaders(w, "audit.csv", result.Truncated, result.TotalMatching)
	if err := WriteAuditCSV(w, result.Rows); err != nil {
		h.Logger.Error().Err(err).Msg("stream audit export")
	}
}

// Returns serves one page of the return case listing.
func (h *Handler) Returns(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sellerID, _ := seller.FromContext(r.Context())
	criteria := ParseReturnCriteria(r.URL.Query(), sellerID)
	page, size := h.Svc.PageParams(r.URL.Query())
	result, totals, err := h.Svc.Returns(r.Context(), criteria, page, size)
	if err != nil {
		h.writeError(w, err, "unable to query return cases")
		return
	}
	common.JSON(w, http.StatusOK, pageEnvelope(result, totals))
}

// ReturnsExport streams the capped return case export as CSV.
func (h *Handler) ReturnsExport(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sellerID, _ := seller.FromContext(r.Context())
	criteria := ParseReturnCriteria(r.URL.Query(), sellerID)
	if r.URL.Query().Get("async") == "1" {
		h.enqueue(w, r, "returns", criteria)
		return
	}
	result, err := h.Svc.ReturnsExport(r.Context(), criteria)
	if err != nil {
		h.writeError(w, err, "unable to export return cases")
		return
	}
	writeCSVHeaders(w, "returns.csv", result.Truncated, result.TotalMatching)
	if err := WriteReturnsCSV(w, result.Rows); err != nil {
		h.Logger.Error().Err(err).Msg("stream returns export")
	}
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, report string, criteria any) {
	requestedBy, _ := common.UserID(r.Context())
	exportID, err := h.Exports.EnqueueExport(r.Context(), report, criteria, requestedBy)
	if err != nil {
		h.writeError(w, err, "unable to queue export")
		return
	}
	common.JSONData(w, http.StatusAccepted, map[string]any{
		"exportId": exportID,
		"report":   report,
		"status":   "queued",
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, message string) {
	h.Logger.Error().Err(err).Msg(message)
	var app *common.AppError
	if errors.As(err, &app) {
		common.JSONError(w, common.HTTPStatusFor(err), app.Code, app.Message, app.Details)
		return
	}
	common.JSONError(w, common.HTTPStatusFor(err), "INTERNAL", message, nil)
}

func writeCSVHeaders(w http.ResponseWriter, filename string, truncated bool, totalMatching int64) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if truncated {
		w.Header().Set("X-Export-Truncated", "true")
	}
	w.Header().Set("X-Export-Total-Matching", strconv.FormatInt(totalMatching, 10))
}
