package report

import (
	"net/url"

	"github.com/noah-isme/backend-pasar/internal/normalize"
)

// OrderCriteria filters the seller order/commission report. Zero values mean
// no filter on that dimension.
type OrderCriteria struct {
	SellerID        string
	Range           normalize.DateRange
	Statuses        []string
	PaymentStatuses []string
	Search          string
}

// PayoutCriteria filters the seller payout listing.
type PayoutCriteria struct {
	SellerID string
	Range    normalize.DateRange
	Statuses []string
}

// AuditCriteria filters the admin audit log.
type AuditCriteria struct {
	ActorID string
	Action  string
	Range   normalize.DateRange
	Success *bool
	Search  string
}

// ReturnCriteria filters the return case listing.
type ReturnCriteria struct {
	SellerID string
	Range    normalize.DateRange
	Statuses []string
	Search   string
}

// ParseOrderCriteria builds normalized order report criteria from raw query
// params. Unknown status tokens are dropped, inverted date bounds swapped.
func ParseOrderCriteria(values url.Values, sellerID string) OrderCriteria {
	return OrderCriteria{
		SellerID:        normalize.Text(sellerID),
		Range:           normalize.ParseDateRange(values.Get("from"), values.Get("to")),
		Statuses:        normalize.StatusSetCSV(normalize.FamilyOrder, values.Get("status")),
		PaymentStatuses: normalize.StatusSetCSV(normalize.FamilyPayment, values.Get("paymentStatus")),
		Search:          normalize.SearchTerm(values.Get("q")),
	}
}

// ParsePayoutCriteria builds normalized payout listing criteria.
func ParsePayoutCriteria(values url.Values, sellerID string) PayoutCriteria {
	return PayoutCriteria{
		SellerID: normalize.Text(sellerID),
		Range:    normalize.ParseDateRange(values.Get("from"), values.Get("to")),
		Statuses: normalize.StatusSetCSV(normalize.FamilyPayout, values.Get("status")),
	}
}

// ParseAuditCriteria builds normalized audit log criteria.
func ParseAuditCriteria(values url.Values) AuditCriteria {
	return AuditCriteria{
		ActorID: normalize.Text(values.Get("actorId")),
		Action:  normalize.Text(values.Get("action")),
		Range:   normalize.ParseDateRange(values.Get("from"), values.Get("to")),
		Success: normalize.TriState(values.Get("result")),
		Search:  normalize.SearchTerm(values.Get("q")),
	}
}

// ParseReturnCriteria builds normalized return case criteria.
func ParseReturnCriteria(values url.Values, sellerID string) ReturnCriteria {
	return ReturnCriteria{
		SellerID: normalize.Text(sellerID),
		Range:    normalize.ParseDateRange(values.Get("from"), values.Get("to")),
		Statuses: normalize.StatusSetCSV(normalize.FamilyReturn, values.Get("status")),
		Search:   normalize.SearchTerm(values.Get("q")),
	}
}
