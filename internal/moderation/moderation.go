// Package moderation runs the admin moderation queue. Product reviews and
// seller ratings share one workflow: every queue item carries a tagged target
// and a single decision path handles both kinds.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/backend-pasar/internal/audit"
	"github.com/noah-isme/backend-pasar/internal/common"
	"github.com/noah-isme/backend-pasar/internal/config"
	"github.com/noah-isme/backend-pasar/internal/normalize"
	"github.com/noah-isme/backend-pasar/internal/query"
)

// TargetKind discriminates what a queue item moderates.
type TargetKind string

const (
	// KindProduct targets a product review.
	KindProduct TargetKind = "product"
	// KindSeller targets a seller rating.
	KindSeller TargetKind = "seller"
)

// ParseTargetKind resolves raw input to a known kind.
func ParseTargetKind(raw string) (TargetKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(KindProduct):
		return KindProduct, true
	case string(KindSeller):
		return KindSeller, true
	default:
		return "", false
	}
}

// Target is the tagged reference a queue item moderates.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// Decision is a moderator verdict.
type Decision string

const (
	// DecisionApprove publishes the content.
	DecisionApprove Decision = "approved"
	// DecisionReject hides the content.
	DecisionReject Decision = "rejected"
)

// ParseDecision resolves raw input to a known decision.
func ParseDecision(raw string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approve", "approved":
		return DecisionApprove, true
	case "reject", "rejected":
		return DecisionReject, true
	default:
		return "", false
	}
}

// QueueCriteria filters the moderation queue.
type QueueCriteria struct {
	Kind        TargetKind
	Statuses    []string
	Range       normalize.DateRange
	FlaggedOnly bool
	Search      string
}

// ParseQueueCriteria builds normalized queue criteria from raw query params.
// An unknown kind filter is dropped, matching both kinds.
func ParseQueueCriteria(values url.Values) QueueCriteria {
	kind, _ := ParseTargetKind(values.Get("kind"))
	return QueueCriteria{
		Kind:        kind,
		Statuses:    normalize.StatusSetCSV(normalize.FamilyModeration, values.Get("status")),
		Range:       normalize.ParseDateRange(values.Get("from"), values.Get("to")),
		FlaggedOnly: strings.EqualFold(strings.TrimSpace(values.Get("flagged")), "true"),
		Search:      normalize.SearchTerm(values.Get("q")),
	}
}

// QueueRow is one item awaiting moderation.
type QueueRow struct {
	ItemID      string    `json:"itemId"`
	Target      Target    `json:"target"`
	AuthorID    string    `json:"authorId"`
	Status      string    `json:"status"`
	Flagged     bool      `json:"flagged"`
	ReportCount int       `json:"reportCount"`
	Excerpt     string    `json:"excerpt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DecisionStore applies moderation verdicts to the underlying content.
type DecisionStore interface {
	// ApplyDecision transitions the target's moderation status. It must
	// report common.ErrNotFound when the target no longer exists.
	ApplyDecision(ctx context.Context, target Target, decision Decision) error
}

// Service pages the moderation queue and applies decisions.
type Service struct {
	queue query.Engine[QueueCriteria, QueueRow]

	Decisions DecisionStore
	Audit     audit.Recorder
}

// NewService builds the moderation service from configuration.
func NewService(cfg config.Config, source query.Source[QueueCriteria, QueueRow], decisions DecisionStore, rec audit.Recorder) *Service {
	return &Service{
		queue: query.Engine[QueueCriteria, QueueRow]{
			Source:          source,
			DefaultPageSize: cfg.DefaultLimit,
			MaxPageSize:     cfg.MaxLimit,
			ExportCap:       cfg.ExportRowCap,
		},
		Decisions: decisions,
		Audit:     rec,
	}
}

// Queue returns one page of pending moderation items.
func (s *Service) Queue(ctx context.Context, criteria QueueCriteria, page, size int) (query.PagedResult[QueueRow], error) {
	result, _, err := s.queue.Query(ctx, criteria, page, size)
	return result, err
}

// Decide applies a moderator verdict to a tagged target. One code path serves
// both product reviews and seller ratings; the store switches on kind.
func (s *Service) Decide(ctx context.Context, actorID string, target Target, decision Decision, note string) error {
	if s.Decisions == nil {
		return errors.New("moderation: decision store not configured")
	}
	if _, ok := ParseTargetKind(string(target.Kind)); !ok {
		return fmt.Errorf("unknown target kind %q: %w", target.Kind, common.ErrValidation)
	}
	if strings.TrimSpace(target.ID) == "" {
		return fmt.Errorf("target id required: %w", common.ErrValidation)
	}
	if _, ok := ParseDecision(string(decision)); !ok {
		return fmt.Errorf("unknown decision %q: %w", decision, common.ErrValidation)
	}

	err := s.Decisions.ApplyDecision(ctx, target, decision)
	// audit is best effort; a failed audit write must not undo the decision
	_ = s.Audit.Record(ctx, actorID, "moderation."+string(decision), string(target.Kind), target.ID, err == nil, note)
	return err
}
