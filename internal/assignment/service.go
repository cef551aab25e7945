package assignment

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/choreloop/choreloop/internal/model"
	"github.com/choreloop/choreloop/internal/progression"
	"github.com/choreloop/choreloop/internal/store"
)

// Service owns the assignment lifecycle beyond rotation: completion, explicit
// cancellation, the reclaim pool, and swap requests. Completion feeds the
// member's counters and triggers the progression engine.
type Service struct {
	homes         *store.HomeStore
	members       *store.MemberStore
	tasks         *store.TaskStore
	assignments   *store.AssignmentStore
	cancellations *store.CancellationStore
	exchanges     *store.ExchangeStore
	progression   *progression.Engine
	logger        *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewService(
	hs *store.HomeStore,
	ms *store.MemberStore,
	ts *store.TaskStore,
	as *store.AssignmentStore,
	cs *store.CancellationStore,
	es *store.ExchangeStore,
	pe *progression.Engine,
	logger *slog.Logger,
) *Service {
	return &Service{
		homes:         hs,
		members:       ms,
		tasks:         ts,
		assignments:   as,
		cancellations: cs,
		exchanges:     es,
		progression:   pe,
		logger:        logger,
		now:           time.Now,
	}
}

// Now exposes the service clock so callers compute cycle windows against the
// same time source the service mutates with.
func (s *Service) Now() time.Time {
	return s.now()
}

// CompleteResult is what a successful completion produced: the immutable
// completion record plus any achievements it unlocked, for notifications.
type CompleteResult struct {
	Completion    *model.Completion   `json:"completion"`
	Level         model.MasteryLevel  `json:"level"`
	LevelChanged  bool                `json:"level_changed"`
	NewlyUnlocked []model.Achievement `json:"newly_unlocked"`
}

// Complete marks a pending assignment done by its owner. Points are copied
// from the task's effort at completion time, counters are bumped, and the
// progression engine re-evaluates unlocks and level.
func (s *Service) Complete(assignmentID, memberID int64) (*CompleteResult, error) {
	a, err := s.assignments.GetByID(assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAssignmentNotFound
	}
	if a.MemberID != memberID {
		return nil, ErrNotOwner
	}
	if a.Status != model.AssignmentPending {
		return nil, ErrNotPending
	}

	task, err := s.tasks.GetByID(a.TaskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	member, err := s.members.GetByID(memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	// The previous completion must be read before the new one is inserted:
	// its day decides whether the streak extends or resets.
	prev, err := s.assignments.LastCompletionForMember(memberID)
	if err != nil {
		return nil, err
	}

	completion, err := s.assignments.CreateCompletion(a.ID, memberID, task.EffortPoints)
	if err != nil {
		return nil, fmt.Errorf("create completion: %w", err)
	}
	if err := s.assignments.UpdateStatus(a.ID, model.AssignmentCompleted); err != nil {
		return nil, err
	}
	if err := s.members.RecordCompletion(memberID, task.EffortPoints); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.members.SetStreak(memberID, nextStreak(member.CurrentStreak, prev, now)); err != nil {
		return nil, err
	}
	if err := s.members.SetWeeksActive(memberID, weeksSince(member.JoinedAt, now)); err != nil {
		return nil, err
	}

	// Unlocks first: a fresh achievement can push the composite score over
	// the next level bar in the same completion.
	newly, err := s.progression.CheckUnlocks(memberID)
	if err != nil {
		return nil, err
	}
	level, changed, err := s.progression.UpdateLevel(memberID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task completed",
		"assignment_id", a.ID,
		"member_id", memberID,
		"points", task.EffortPoints,
		"unlocked", len(newly),
	)

	return &CompleteResult{
		Completion:    completion,
		Level:         level,
		LevelChanged:  changed,
		NewlyUnlocked: newly,
	}, nil
}

// Cancel declines a pending assignment owned by the member: the assignment
// becomes skipped and a cancellation opens the task for reclaim.
func (s *Service) Cancel(assignmentID, memberID int64, reason string) (*model.Cancellation, error) {
	a, err := s.assignments.GetByID(assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAssignmentNotFound
	}
	if a.MemberID != memberID {
		return nil, ErrNotOwner
	}
	if a.Status != model.AssignmentPending {
		return nil, ErrNotPending
	}

	if err := s.assignments.UpdateStatus(a.ID, model.AssignmentSkipped); err != nil {
		return nil, err
	}
	c, err := s.cancellations.Upsert(a.ID, memberID, reason)
	if err != nil {
		return nil, err
	}

	s.logger.Info("assignment cancelled", "assignment_id", a.ID, "member_id", memberID)
	return c, nil
}

// nextStreak computes the consecutive-completion-day counter: unchanged for a
// second completion on the same day, incremented when the previous completion
// was the day before, otherwise back to 1.
func nextStreak(current int, prev *model.Completion, now time.Time) int {
	if prev == nil {
		return 1
	}
	if current < 1 {
		current = 1
	}

	today := startOfDay(now)
	prevDay := startOfDay(prev.CompletedAt)

	switch {
	case prevDay.Equal(today):
		return current
	case prevDay.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

func weeksSince(joined, now time.Time) int {
	days := int(now.Sub(joined).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 7
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
