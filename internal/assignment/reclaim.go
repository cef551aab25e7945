package assignment

import (
	"fmt"
	"time"

	"github.com/choreloop/choreloop/internal/cycle"
	"github.com/choreloop/choreloop/internal/model"
)

// ReclaimSource tags where a reclaimable entry came from: a real cancellation
// or a task nobody was assigned this cycle. A tagged variant keeps the
// reclaim branching explicit instead of overloading a sentinel id.
type ReclaimSource string

const (
	SourceCancellation ReclaimSource = "cancellation"
	SourceUnassigned   ReclaimSource = "unassigned"
)

// ReclaimEntry is one take-able task in the current cycle's reclaim pool.
// CancellationID and DueDate are set only for SourceCancellation entries.
type ReclaimEntry struct {
	Source         ReclaimSource `json:"source"`
	TaskID         int64         `json:"task_id"`
	TaskTitle      string        `json:"task_title"`
	EffortPoints   int           `json:"effort_points"`
	CancellationID *int64        `json:"cancellation_id,omitempty"`
	DueDate        *time.Time    `json:"due_date,omitempty"`
	Reason         string        `json:"reason,omitempty"`
}

// ReclaimRequest identifies what to take and who takes it. CancellationID is
// required when Source is SourceCancellation and ignored otherwise.
type ReclaimRequest struct {
	Source         ReclaimSource `json:"source"`
	CancellationID int64         `json:"cancellation_id"`
	TaskID         int64         `json:"task_id"`
	MemberID       int64         `json:"member_id"`
}

// ListReclaimable returns the union of open cancellations in the current
// cycle and active tasks with no assignment at all yet this cycle.
func (s *Service) ListReclaimable(homeID int64) ([]ReclaimEntry, error) {
	home, err := s.homes.GetByID(homeID)
	if err != nil {
		return nil, err
	}
	if home == nil {
		return nil, ErrHomeNotFound
	}

	start := cycle.Start(home.RotationPolicy, s.now())
	end := cycle.End(home.RotationPolicy, start)

	var entries []ReclaimEntry

	open, err := s.cancellations.ListOpenByHomeAndRange(homeID, start, end)
	if err != nil {
		return nil, err
	}
	for _, c := range open {
		orig, err := s.assignments.GetByID(c.AssignmentID)
		if err != nil {
			return nil, err
		}
		if orig == nil {
			continue
		}
		task, err := s.tasks.GetByID(orig.TaskID)
		if err != nil {
			return nil, err
		}
		if task == nil {
			continue
		}

		cancellationID := c.ID
		due := orig.DueDate
		entries = append(entries, ReclaimEntry{
			Source:         SourceCancellation,
			TaskID:         task.ID,
			TaskTitle:      task.Title,
			EffortPoints:   task.EffortPoints,
			CancellationID: &cancellationID,
			DueDate:        &due,
			Reason:         c.Reason,
		})
	}

	unassigned, err := s.tasks.ListUnassignedActive(homeID, start, end)
	if err != nil {
		return nil, err
	}
	for _, task := range unassigned {
		entries = append(entries, ReclaimEntry{
			Source:       SourceUnassigned,
			TaskID:       task.ID,
			TaskTitle:    task.Title,
			EffortPoints: task.EffortPoints,
		})
	}

	return entries, nil
}

// Reclaim assigns the entry's task to a new member today. For a cancellation
// entry the original due date is preserved and the cancellation is closed;
// for a never-assigned task a fresh due date follows the task's frequency.
func (s *Service) Reclaim(req ReclaimRequest) (*model.Assignment, error) {
	member, err := s.members.GetByID(req.MemberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	if member.Status != model.MemberActive {
		return nil, ErrMemberInactive
	}

	task, err := s.tasks.GetByID(req.TaskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if task.HomeID != member.HomeID {
		return nil, ErrHomeMismatch
	}

	now := s.now()
	today := startOfDay(now)

	// Duplicate guard: at most one assignment per (task, member, day), so a
	// reclaimed task can never be granted twice to the same member.
	exists, err := s.assignments.ExistsForTaskMemberDay(task.ID, member.ID, today)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAssignment
	}

	switch req.Source {
	case SourceCancellation:
		c, err := s.cancellations.GetByID(req.CancellationID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, ErrCancellationNotFound
		}
		if !c.IsAvailable {
			return nil, ErrNotAvailable
		}
		orig, err := s.assignments.GetByID(c.AssignmentID)
		if err != nil {
			return nil, err
		}
		if orig == nil || orig.TaskID != task.ID {
			return nil, ErrCancellationNotFound
		}

		a, err := s.assignments.Create(task.ID, member.ID, today, orig.DueDate, model.AssignmentPending)
		if err != nil {
			return nil, err
		}
		if err := s.cancellations.MarkTaken(c.ID, member.ID, now); err != nil {
			return nil, err
		}

		s.logger.Info("cancelled task reclaimed", "task_id", task.ID, "member_id", member.ID, "cancellation_id", c.ID)
		return a, nil

	case SourceUnassigned:
		a, err := s.assignments.Create(task.ID, member.ID, today, cycle.DueDate(task.Frequency, today), model.AssignmentPending)
		if err != nil {
			return nil, err
		}

		s.logger.Info("unassigned task claimed", "task_id", task.ID, "member_id", member.ID)
		return a, nil

	default:
		return nil, fmt.Errorf("unknown reclaim source %q", req.Source)
	}
}
