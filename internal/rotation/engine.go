package rotation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/choreloop/choreloop/internal/cycle"
	"github.com/choreloop/choreloop/internal/model"
	"github.com/choreloop/choreloop/internal/store"
)

// Engine assigns active tasks to active members for one cycle. Fairness is a
// bounded greedy heuristic: members are offered tasks in ascending order of
// cumulative points, round-robin over the task list in creation order.
type Engine struct {
	tasks       *store.TaskStore
	members     *store.MemberStore
	assignments *store.AssignmentStore
	logger      *slog.Logger
}

func NewEngine(ts *store.TaskStore, ms *store.MemberStore, as *store.AssignmentStore, logger *slog.Logger) *Engine {
	return &Engine{tasks: ts, members: ms, assignments: as, logger: logger}
}

// Assign creates one pending assignment per active task for the cycle
// starting at cycleStart. Task i goes to members[i mod memberCount], with
// members ordered by total points ascending. Due dates follow each task's own
// frequency, independent of the rotation policy.
//
// An empty task or member set is not an error: the result is simply empty.
// If creating one assignment fails, the assignments already created are
// returned alongside the error so the caller can see what committed.
func (e *Engine) Assign(homeID int64, cycleStart time.Time) ([]model.Assignment, error) {
	tasks, err := e.tasks.ListActiveByHome(homeID)
	if err != nil {
		return nil, fmt.Errorf("load active tasks: %w", err)
	}
	members, err := e.members.ListActiveByHome(homeID)
	if err != nil {
		return nil, fmt.Errorf("load active members: %w", err)
	}

	if len(tasks) == 0 || len(members) == 0 {
		e.logger.Debug("nothing to assign", "home_id", homeID, "tasks", len(tasks), "members", len(members))
		return nil, nil
	}

	var created []model.Assignment
	for i, task := range tasks {
		member := members[i%len(members)]
		due := cycle.DueDate(task.Frequency, cycleStart)

		a, err := e.assignments.Create(task.ID, member.ID, cycleStart, due, model.AssignmentPending)
		if err != nil {
			return created, fmt.Errorf("assign task %d to member %d: %w", task.ID, member.ID, err)
		}
		created = append(created, *a)
	}

	e.logger.Info("rotation assigned",
		"home_id", homeID,
		"cycle_start", cycleStart.Format("2006-01-02"),
		"assignments", len(created),
	)
	return created, nil
}
