package normalize

import "strings"

// StatusFamily names a set of canonical status tokens.
type StatusFamily string

const (
	// FamilyOrder covers order lifecycle statuses.
	FamilyOrder StatusFamily = "order"
	// FamilyPayment covers payment statuses.
	FamilyPayment StatusFamily = "payment"
	// FamilyReview covers review moderation statuses.
	FamilyReview StatusFamily = "review"
	// FamilyModeration covers generic moderation queue statuses.
	FamilyModeration StatusFamily = "moderation"
	// FamilyPayout covers seller payout statuses.
	FamilyPayout StatusFamily = "payout"
	// FamilyReturn covers return case statuses.
	FamilyReturn StatusFamily = "return"
)

// statusTables maps lowercase input tokens to their canonical form per family.
// Aliases stay here so deprecated filter values keep resolving.
var statusTables = map[StatusFamily]map[string]string{
	FamilyOrder: {
		"pending":   "pending",
		"paid":      "paid",
		"shipped":   "shipped",
		"completed": "completed",
		"complete":  "completed",
		"cancelled": "cancelled",
		"canceled":  "cancelled",
		"refunded":  "refunded",
	},
	FamilyPayment: {
		"pending":    "pending",
		"authorized": "authorized",
		"settled":    "settled",
		"settlement": "settled",
		"failed":     "failed",
		"expired":    "expired",
		"refunded":   "refunded",
	},
	FamilyReview: {
		"pending":  "pending",
		"approved": "approved",
		"rejected": "rejected",
		"flagged":  "flagged",
	},
	FamilyModeration: {
		"pending":  "pending",
		"approved": "approved",
		"rejected": "rejected",
		"flagged":  "flagged",
	},
	FamilyPayout: {
		"pending":    "pending",
		"processing": "processing",
		"paid":       "paid",
		"failed":     "failed",
	},
	FamilyReturn: {
		"requested": "requested",
		"approved":  "approved",
		"rejected":  "rejected",
		"received":  "received",
		"refunded":  "refunded",
	},
}

// Status resolves raw input to the family's canonical token. Unrecognized
// input yields an empty token, not an error.
func Status(family StatusFamily, raw string) string {
	table, ok := statusTables[family]
	if !ok {
		return ""
	}
	return table[strings.ToLower(strings.TrimSpace(raw))]
}

// StatusSet resolves a list of raw tokens, dropping unknowns and duplicates
// while preserving first-seen order.
func StatusSet(family StatusFamily, raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, candidate := range raw {
		token := Status(family, candidate)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// StatusSetCSV splits a comma-separated filter value and resolves it via StatusSet.
func StatusSetCSV(family StatusFamily, csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	return StatusSet(family, strings.Split(csv, ","))
}
