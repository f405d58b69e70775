package report

import (
	"time"

	"github.com/noah-isme/backend-pasar/internal/pricing"
)

// OrderRow is one order in the seller commission report. Monetary fields are
// minor units; Net = Gross - Commission.
type OrderRow struct {
	OrderID       string        `json:"orderId"`
	SellerID      string        `json:"sellerId"`
	BuyerName     string        `json:"buyerName"`
	Status        string        `json:"status"`
	PaymentStatus string        `json:"paymentStatus"`
	Gross         pricing.Money `json:"gross"`
	Commission    pricing.Money `json:"commission"`
	Net           pricing.Money `json:"net"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// PayoutRow is one payout in the seller payout listing.
type PayoutRow struct {
	PayoutID  string        `json:"payoutId"`
	SellerID  string        `json:"sellerId"`
	Status    string        `json:"status"`
	Amount    pricing.Money `json:"amount"`
	Fee       pricing.Money `json:"fee"`
	Net       pricing.Money `json:"net"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AuditRow is one admin audit log entry.
type AuditRow struct {
	EntryID    string    `json:"entryId"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	TargetKind string    `json:"targetKind"`
	TargetID   string    `json:"targetId"`
	Success    bool      `json:"success"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ReturnRow is one return case in the return listing.
type ReturnRow struct {
	CaseID       string        `json:"caseId"`
	OrderID      string        `json:"orderId"`
	SellerID     string        `json:"sellerId"`
	Status       string        `json:"status"`
	Reason       string        `json:"reason"`
	RefundAmount pricing.Money `json:"refundAmount"`
	CreatedAt    time.Time     `json:"createdAt"`
}
