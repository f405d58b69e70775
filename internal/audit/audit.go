// Package audit records admin actions for the audit log report. Entries land
// in the same audit_log table the report pipeline reads back out.
package audit

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one recorded admin action.
type Entry struct {
	EntryID    string
	ActorID    string
	Action     string
	TargetKind string
	TargetID   string
	Success    bool
	Detail     string
	CreatedAt  time.Time
}

// Store persists audit entries.
type Store interface {
	InsertEntry(ctx context.Context, entry Entry) error
}

// Recorder writes audit entries for critical flows. Sampling below 1.0 drops
// a share of entries to bound write volume on hot paths.
type Recorder struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
	Now          func() time.Time
}

func (r Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// Record persists one audit entry when auditing is enabled.
func (r Recorder) Record(ctx context.Context, actorID, action, targetKind, targetID string, success bool, detail string) error {
	if !r.Enabled {
		return nil
	}
	if r.SamplingRate > 0 && r.SamplingRate < 1 {
		if rand.Float64() > r.SamplingRate {
			return nil
		}
	}
	if r.Store == nil {
		return errors.New("audit: store not configured")
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return errors.New("audit: action is required")
	}
	entry := Entry{
		EntryID:    uuid.NewString(),
		ActorID:    strings.TrimSpace(actorID),
		Action:     action,
		TargetKind: strings.TrimSpace(targetKind),
		TargetID:   strings.TrimSpace(targetID),
		Success:    success,
		Detail:     strings.TrimSpace(detail),
		CreatedAt:  r.now(),
	}
	if err := r.Store.InsertEntry(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// PgStore persists audit entries to PostgreSQL.
type PgStore struct {
	Pool *pgxpool.Pool
}

// InsertEntry writes one entry into audit_log.
func (s PgStore) InsertEntry(ctx context.Context, entry Entry) error {
	if s.Pool == nil {
		return errors.New("audit: pool not configured")
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO audit_log (id, actor_id, action, target_kind, target_id, success, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`,
		entry.EntryID, entry.ActorID, entry.Action, entry.TargetKind, entry.TargetID,
		entry.Success, entry.Detail, entry.CreatedAt,
	)
	return err
}
