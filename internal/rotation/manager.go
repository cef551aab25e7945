package rotation

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/choreloop/choreloop/internal/cycle"
	"github.com/choreloop/choreloop/internal/store"
)

// ErrHomeNotFound is returned when rollover is requested for an unknown home.
var ErrHomeNotFound = errors.New("home not found")

// RolloverResult describes what a rollover invocation actually did.
type RolloverResult struct {
	RolledOver     bool      `json:"rolled_over"`
	Closed         int       `json:"closed"`
	Assigned       int       `json:"assigned"`
	NextCycleStart time.Time `json:"next_cycle_start"`
}

// Manager detects cycle rollover, closes the expired cycle, and invokes the
// engine for the new one. The sequence is safe to invoke redundantly:
// convergence comes from idempotent design (delete-then-recreate of the
// not-yet-started cycle), not from an external lock.
type Manager struct {
	homes       *store.HomeStore
	assignments *store.AssignmentStore
	audit       *store.AuditStore
	engine      *Engine
	logger      *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewManager(hs *store.HomeStore, as *store.AssignmentStore, audit *store.AuditStore, engine *Engine, logger *slog.Logger) *Manager {
	return &Manager{
		homes:       hs,
		assignments: as,
		audit:       audit,
		engine:      engine,
		logger:      logger,
		now:         time.Now,
	}
}

// RolloverIfNeeded closes out the previous cycle's stale pending assignments
// and (re)assigns the next cycle. Any step failing aborts before the
// following steps run; the audit entry reflects only what committed.
func (m *Manager) RolloverIfNeeded(homeID int64) (*RolloverResult, error) {
	home, err := m.homes.GetByID(homeID)
	if err != nil {
		return nil, fmt.Errorf("load home: %w", err)
	}
	if home == nil {
		return nil, ErrHomeNotFound
	}

	now := m.now()
	currentStart := cycle.Start(home.RotationPolicy, now)
	prevStart := cycle.Previous(home.RotationPolicy, currentStart)
	prevEnd := cycle.End(home.RotationPolicy, prevStart)

	closed, err := m.assignments.MarkSkippedByHomeAndRange(homeID, prevStart, prevEnd)
	if err != nil {
		return nil, fmt.Errorf("close previous cycle: %w", err)
	}

	nextStart := cycle.Next(home.RotationPolicy, currentStart)

	// Cheap re-entry guard: if the previous cycle had nothing left to close
	// and the next cycle is already populated, a rollover already ran.
	if closed == 0 {
		existing, err := m.assignments.ListByHomeAndRange(homeID, nextStart, cycle.End(home.RotationPolicy, nextStart))
		if err != nil {
			return nil, fmt.Errorf("check next cycle: %w", err)
		}
		if len(existing) > 0 {
			return &RolloverResult{RolledOver: false, NextCycleStart: nextStart}, nil
		}
	}

	// Delete anything already created at or after the next cycle start so a
	// double-rollover from concurrent triggers converges instead of
	// accumulating duplicates.
	deleted, err := m.assignments.DeleteFromDate(homeID, nextStart)
	if err != nil {
		return nil, fmt.Errorf("clear next cycle: %w", err)
	}
	if deleted > 0 {
		m.logger.Debug("cleared stale next-cycle assignments", "home_id", homeID, "deleted", deleted)
	}

	created, assignErr := m.engine.Assign(homeID, nextStart)
	if assignErr != nil {
		// Partial creation is visible in the audit trail rather than
		// silently retried.
		if _, auditErr := m.audit.Append(homeID, fmt.Sprintf(
			"cycle rollover aborted: closed %d stale assignments, created %d before failure",
			closed, len(created),
		)); auditErr != nil {
			m.logger.Error("audit append failed", "home_id", homeID, "error", auditErr)
		}
		return nil, fmt.Errorf("assign next cycle: %w", assignErr)
	}

	if _, err := m.audit.Append(homeID, fmt.Sprintf(
		"cycle rollover: closed %d stale assignments, assigned %d tasks for cycle starting %s",
		closed, len(created), nextStart.Format("2006-01-02"),
	)); err != nil {
		m.logger.Error("audit append failed", "home_id", homeID, "error", err)
	}

	m.logger.Info("cycle rolled over",
		"home_id", homeID,
		"closed", closed,
		"assigned", len(created),
		"next_cycle_start", nextStart.Format("2006-01-02"),
	)

	return &RolloverResult{
		RolledOver:     true,
		Closed:         int(closed),
		Assigned:       len(created),
		NextCycleStart: nextStart,
	}, nil
}
