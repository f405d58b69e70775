package moderation_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pasar/internal/audit"
	"github.com/noah-isme/backend-pasar/internal/common"
	"github.com/noah-isme/backend-pasar/internal/config"
	"github.com/noah-isme/backend-pasar/internal/moderation"
)

type memQueueSource struct {
	rows []moderation.QueueRow
}

func (s memQueueSource) match(criteria moderation.QueueCriteria) []moderation.QueueRow {
	out := make([]moderation.QueueRow, 0, len(s.rows))
	for _, row := range s.rows {
		if criteria.Kind != "" && row.Target.Kind != criteria.Kind {
			continue
		}
		if criteria.FlaggedOnly && !row.Flagged {
			continue
		}
		if len(criteria.Statuses) > 0 && !containsStatus(criteria.Statuses, row.Status) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func containsStatus(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (s memQueueSource) QueryPage(_ context.Context, criteria moderation.QueueCriteria, limit, offset int) ([]moderation.QueueRow, int64, error) {
	matched := s.match(criteria)
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s memQueueSource) QueryAll(_ context.Context, criteria moderation.QueueCriteria, limit int) ([]moderation.QueueRow, int64, error) {
	matched := s.match(criteria)
	total := int64(len(matched))
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

type memDecisions struct {
	applied map[string]moderation.Decision
	missing bool
}

func (s *memDecisions) ApplyDecision(_ context.Context, target moderation.Target, decision moderation.Decision) error {
	if s.missing {
		return common.ErrNotFound
	}
	if s.applied == nil {
		s.applied = map[string]moderation.Decision{}
	}
	s.applied[string(target.Kind)+":"+target.ID] = decision
	return nil
}

type memAuditStore struct {
	entries []audit.Entry
}

func (s *memAuditStore) InsertEntry(_ context.Context, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func queueFixture() []moderation.QueueRow {
	base := time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)
	return []moderation.QueueRow{
		{ItemID: "m-1", Target: moderation.Target{Kind: moderation.KindProduct, ID: "rev-1"}, Status: "pending", Flagged: true, CreatedAt: base},
		{ItemID: "m-2", Target: moderation.Target{Kind: moderation.KindSeller, ID: "rat-1"}, Status: "pending", CreatedAt: base.Add(-time.Hour)},
		{ItemID: "m-3", Target: moderation.Target{Kind: moderation.KindProduct, ID: "rev-2"}, Status: "flagged", Flagged: true, CreatedAt: base.Add(-2 * time.Hour)},
	}
}

func newService(decisions *memDecisions, auditStore *memAuditStore) *moderation.Service {
	cfg := config.Config{DefaultLimit: 10, MaxLimit: 50}
	rec := audit.Recorder{Store: auditStore, Enabled: true}
	return moderation.NewService(cfg, memQueueSource{rows: queueFixture()}, decisions, rec)
}

func TestQueueFiltersByKind(t *testing.T) {
	svc := newService(&memDecisions{}, &memAuditStore{})
	result, err := svc.Queue(context.Background(), moderation.QueueCriteria{Kind: moderation.KindProduct}, 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	for _, item := range result.Items {
		require.Equal(t, moderation.KindProduct, item.Target.Kind)
	}
}

func TestQueueFlaggedOnly(t *testing.T) {
	svc := newService(&memDecisions{}, &memAuditStore{})
	result, err := svc.Queue(context.Background(), moderation.QueueCriteria{FlaggedOnly: true}, 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
}

func TestDecideAppliesAndAudits(t *testing.T) {
	decisions := &memDecisions{}
	auditStore := &memAuditStore{}
	svc := newService(decisions, auditStore)

	target := moderation.Target{Kind: moderation.KindSeller, ID: "rat-1"}
	err := svc.Decide(context.Background(), "admin-1", target, moderation.DecisionReject, "abusive")
	require.NoError(t, err)
	require.Equal(t, moderation.DecisionReject, decisions.applied["seller:rat-1"])

	require.Len(t, auditStore.entries, 1)
	entry := auditStore.entries[0]
	require.Equal(t, "moderation.rejected", entry.Action)
	require.Equal(t, "seller", entry.TargetKind)
	require.True(t, entry.Success)
}

func TestDecideValidatesInput(t *testing.T) {
	svc := newService(&memDecisions{}, &memAuditStore{})

	err := svc.Decide(context.Background(), "admin-1", moderation.Target{Kind: "page", ID: "x"}, moderation.DecisionApprove, "")
	require.ErrorIs(t, err, common.ErrValidation)

	err = svc.Decide(context.Background(), "admin-1", moderation.Target{Kind: moderation.KindProduct, ID: " "}, moderation.DecisionApprove, "")
	require.ErrorIs(t, err, common.ErrValidation)

	err = svc.Decide(context.Background(), "admin-1", moderation.Target{Kind: moderation.KindProduct, ID: "rev-1"}, "maybe", "")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestDecideMissingTargetAuditsFailure(t *testing.T) {
	auditStore := &memAuditStore{}
	svc := newService(&memDecisions{missing: true}, auditStore)

	err := svc.Decide(context.Background(), "admin-1", moderation.Target{Kind: moderation.KindProduct, ID: "gone"}, moderation.DecisionApprove, "")
	require.ErrorIs(t, err, common.ErrNotFound)
	require.Len(t, auditStore.entries, 1)
	require.False(t, auditStore.entries[0].Success)
}

func TestParseQueueCriteria(t *testing.T) {
	values := url.Values{
		"kind":    {"Seller"},
		"status":  {"PENDING,unknown"},
		"flagged": {"true"},
		"q":       {"  spam  "},
	}
	criteria := moderation.ParseQueueCriteria(values)
	require.Equal(t, moderation.KindSeller, criteria.Kind)
	require.Equal(t, []string{"pending"}, criteria.Statuses)
	require.True(t, criteria.FlaggedOnly)
	require.Equal(t, "spam", criteria.Search)

	criteria = moderation.ParseQueueCriteria(url.Values{"kind": {"bogus"}})
	require.Equal(t, moderation.TargetKind(""), criteria.Kind)
}
