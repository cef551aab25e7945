package rotation

import (
	"log/slog"
	"testing"
	"time"

	"github.com/choreloop/choreloop/internal/cycle"
	"github.com/choreloop/choreloop/internal/database"
	"github.com/choreloop/choreloop/internal/model"
	"github.com/choreloop/choreloop/internal/store"
)

type fixture struct {
	homes       *store.HomeStore
	members     *store.MemberStore
	tasks       *store.TaskStore
	assignments *store.AssignmentStore
	audit       *store.AuditStore
	engine      *Engine
	manager     *Manager
	home        *model.Home
}

func setup(t *testing.T, policy model.RotationPolicy) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		homes:       store.NewHomeStore(db),
		members:     store.NewMemberStore(db),
		tasks:       store.NewTaskStore(db),
		assignments: store.NewAssignmentStore(db),
		audit:       store.NewAuditStore(db),
	}
	f.engine = NewEngine(f.tasks, f.members, f.assignments, slog.Default())
	f.manager = NewManager(f.homes, f.assignments, f.audit, f.engine, slog.Default())

	f.home, err = f.homes.Create("Test Home", policy, 80)
	if err != nil {
		t.Fatalf("create home: %v", err)
	}
	return f
}

func (f *fixture) addMembers(t *testing.T, names ...string) []*model.Member {
	t.Helper()
	var members []*model.Member
	for _, name := range names {
		m, err := f.members.Create(f.home.ID, name, model.MemberActive)
		if err != nil {
			t.Fatalf("create member %s: %v", name, err)
		}
		members = append(members, m)
	}
	return members
}

func (f *fixture) addTasks(t *testing.T, n int) []*model.Task {
	t.Helper()
	var tasks []*model.Task
	for i := 0; i < n; i++ {
		task, err := f.tasks.Create(f.home.ID, "Task", "", model.FreqWeekly, 1, true)
		if err != nil {
			t.Fatalf("create task %d: %v", i, err)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func TestAssignEmptySets(t *testing.T) {
	f := setup(t, model.PolicyWeekly)
	start := cycle.Start(model.PolicyWeekly, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))

	created, err := f.engine.Assign(f.home.ID, start)
	if err != nil {
		t.Fatalf("assign with no tasks or members: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("expected no assignments, got %d", len(created))
	}

	f.addTasks(t, 3)
	created, err = f.engine.Assign(f.home.ID, start)
	if err != nil {
		t.Fatalf("assign with no members: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("expected no assignments without members, got %d", len(created))
	}
}

// With N members and a task count divisible by N, everyone gets exactly
// tasks/N assignments.
func TestAssignEvenSplit(t *testing.T) {
	f := setup(t, model.PolicyWeekly)
	members := f.addMembers(t, "Ada", "Bo", "Cy")
	f.addTasks(t, 9)

	start := cycle.Start(model.PolicyWeekly, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))
	created, err := f.engine.Assign(f.home.ID, start)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(created) != 9 {
		t.Fatalf("expected 9 assignments, got %d", len(created))
	}

	counts := make(map[int64]int)
	for _, a := range created {
		counts[a.MemberID]++
	}
	for _, m := range members {
		if counts[m.ID] != 3 {
			t.Errorf("member %s got %d assignments, want 3", m.Name, counts[m.ID])
		}
	}
}

// Members are walked in ascending total-points order, so the member with the
// fewest points gets the first task and any remainder.
func TestAssignFavorsFewestPoints(t *testing.T) {
	f := setup(t, model.PolicyWeekly)
	members := f.addMembers(t, "Ada", "Bo")
	f.addTasks(t, 3)

	// Ada has earned more, so Bo leads the rotation.
	if err := f.members.RecordCompletion(members[0].ID, 10); err != nil {
		t.Fatalf("record completion: %v", err)
	}

	start := cycle.Start(model.PolicyWeekly, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))
	created, err := f.engine.Assign(f.home.ID, start)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	counts := make(map[int64]int)
	for _, a := range created {
		counts[a.MemberID]++
	}
	if counts[members[1].ID] != 2 {
		t.Errorf("low-point member got %d assignments, want 2", counts[members[1].ID])
	}
	if counts[members[0].ID] != 1 {
		t.Errorf("high-point member got %d assignments, want 1", counts[members[0].ID])
	}
	if created[0].MemberID != members[1].ID {
		t.Errorf("first task went to member %d, want %d", created[0].MemberID, members[1].ID)
	}
}

func TestAssignDueDatesFollowTaskFrequency(t *testing.T) {
	f := setup(t, model.PolicyWeekly)
	f.addMembers(t, "Ada")

	daily, _ := f.tasks.Create(f.home.ID, "Dishes", "", model.FreqDaily, 1, true)
	monthly, _ := f.tasks.Create(f.home.ID, "Deep Clean", "", model.FreqMonthly, 3, true)

	start := cycle.Start(model.PolicyWeekly, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))
	created, err := f.engine.Assign(f.home.ID, start)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	byTask := make(map[int64]model.Assignment)
	for _, a := range created {
		byTask[a.TaskID] = a
	}
	if got := byTask[daily.ID].DueDate; !got.Equal(start.AddDate(0, 0, 1)) {
		t.Errorf("daily due = %v, want %v", got, start.AddDate(0, 0, 1))
	}
	if got := byTask[monthly.ID].DueDate; !got.Equal(start.AddDate(0, 1, 0)) {
		t.Errorf("monthly due = %v, want %v", got, start.AddDate(0, 1, 0))
	}
}

func TestRolloverClosesAndAssigns(t *testing.T) {
	f := setup(t, model.PolicyWeekly)
	members := f.addMembers(t, "Ada", "Bo")
	tasks := f.addTasks(t, 4)

	now := time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)
	f.manager.now = func() time.Time { return now }

	currentStart := cycle.Start(model.PolicyWeekly, now)
	prevStart := cycle.Previous(model.PolicyWeekly, currentStart)

	// Two stale pending assignments in the previous cycle, one completed.
	f.assignments.Create(tasks[0].ID, members[0].ID, prevStart, prevStart.AddDate(0, 0, 7), model.AssignmentPending)
	f.assignments.Create(tasks[1].ID, members[1].ID, prevStart, prevStart.AddDate(0, 0, 7), model.AssignmentPending)
	f.assignments.Create(tasks[2].ID, members[0].ID, prevStart, prevStart.AddDate(0, 0, 7), model.AssignmentCompleted)

	result, err := f.manager.RolloverIfNeeded(f.home.ID)
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if !result.RolledOver {
		t.Fatal("expected a rollover")
	}
	if result.Closed != 2 {
		t.Errorf("closed = %d, want 2", result.Closed)
	}
	if result.Assigned != 4 {
		t.Errorf("assigned = %d, want 4", result.Assigned)
	}

	wantNext := cycle.Next(model.PolicyWeekly, currentStart)
	if !result.NextCycleStart.Equal(wantNext) {
		t.Errorf("next cycle start = %v, want %v", result.NextCycleStart, wantNext)
	}

	// The previous cycle's pending work is now skipped.
	prev, _ := f.assignments.ListByHomeAndRange(f.home.ID, prevStart, cycle.End(model.PolicyWeekly, prevStart))
	for _, a := range prev {
		if a.Status == model.AssignmentPending {
			t.Errorf("assignment %d still pending after rollover", a.ID)
		}
	}

	// An audit entry was recorded.
	entries, err := f.audit.ListByHome(f.home.ID, 10)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 audit entry, got %d", len(entries))
	}
}

// Running rollover twice converges: the second run is a no-op and the next
// cycle is not duplicated.
func TestRolloverIdempotent(t *testing.T) {
	f := setup(t, model.PolicyWeekly)
	f.addMembers(t, "Ada", "Bo")
	f.addTasks(t, 4)

	now := time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC)
	f.manager.now = func() time.Time { return now }

	first, err := f.manager.RolloverIfNeeded(f.home.ID)
	if err != nil {
		t.Fatalf("first rollover: %v", err)
	}
	if !first.RolledOver {
		t.Fatal("first invocation should roll over")
	}

	second, err := f.manager.RolloverIfNeeded(f.home.ID)
	if err != nil {
		t.Fatalf("second rollover: %v", err)
	}
	if second.RolledOver {
		t.Error("second invocation should be a no-op")
	}

	nextStart := first.NextCycleStart
	next, _ := f.assignments.ListByHomeAndRange(f.home.ID, nextStart, cycle.End(model.PolicyWeekly, nextStart))
	if len(next) != 4 {
		t.Errorf("next cycle has %d assignments after double rollover, want 4", len(next))
	}
}

func TestRolloverUnknownHome(t *testing.T) {
	f := setup(t, model.PolicyWeekly)

	_, err := f.manager.RolloverIfNeeded(999)
	if err != ErrHomeNotFound {
		t.Errorf("err = %v, want ErrHomeNotFound", err)
	}
}
