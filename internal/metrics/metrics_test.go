package metrics

import (
	"testing"
	"time"

	"github.com/choreloop/choreloop/internal/cycle"
	"github.com/choreloop/choreloop/internal/database"
	"github.com/choreloop/choreloop/internal/model"
	"github.com/choreloop/choreloop/internal/store"
)

type fixture struct {
	members     *store.MemberStore
	tasks       *store.TaskStore
	assignments *store.AssignmentStore
	engine      *Engine
	home        *model.Home
	now         time.Time
}

func setup(t *testing.T, goal int) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	homes := store.NewHomeStore(db)
	f := &fixture{
		members:     store.NewMemberStore(db),
		tasks:       store.NewTaskStore(db),
		assignments: store.NewAssignmentStore(db),
		now:         time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC),
	}
	f.engine = NewEngine(homes, f.members, f.assignments)
	f.engine.now = func() time.Time { return f.now }

	f.home, err = homes.Create("Test Home", model.PolicyWeekly, goal)
	if err != nil {
		t.Fatalf("create home: %v", err)
	}
	return f
}

// seedCycle creates one assignment per status in the cycle containing the
// reference time, alternating members.
func (f *fixture) seedCycle(t *testing.T, ref time.Time, memberIDs []int64, statuses ...model.AssignmentStatus) {
	t.Helper()
	start := cycle.Start(f.home.RotationPolicy, ref)
	for i, status := range statuses {
		task, err := f.tasks.Create(f.home.ID, "Task", "", model.FreqWeekly, 1, true)
		if err != nil {
			t.Fatalf("create task: %v", err)
		}
		member := memberIDs[i%len(memberIDs)]
		if _, err := f.assignments.Create(task.ID, member, start.Add(time.Duration(i)*time.Minute), start.AddDate(0, 0, 7), status); err != nil {
			t.Fatalf("create assignment: %v", err)
		}
	}
}

func (f *fixture) addMembers(t *testing.T, n int) []int64 {
	t.Helper()
	var ids []int64
	for i := 0; i < n; i++ {
		m, err := f.members.Create(f.home.ID, "Member", model.MemberActive)
		if err != nil {
			t.Fatalf("create member: %v", err)
		}
		ids = append(ids, m.ID)
	}
	return ids
}

// Two members, four tasks, three completed and one pending: 75% completion,
// perfectly even split.
func TestHomeMetricsScenario(t *testing.T) {
	f := setup(t, 80)
	members := f.addMembers(t, 2)

	f.seedCycle(t, f.now, members,
		model.AssignmentCompleted, model.AssignmentCompleted,
		model.AssignmentCompleted, model.AssignmentPending,
	)

	m, err := f.engine.HomeMetrics(f.home.ID)
	if err != nil {
		t.Fatalf("home metrics: %v", err)
	}
	if m.CompletionPct != 75 {
		t.Errorf("completion = %d, want 75", m.CompletionPct)
	}
	if m.EquityPct != 100 {
		t.Errorf("equity = %d, want 100", m.EquityPct)
	}
	// 75 misses the 80 goal, so the streak is zero.
	if m.ConsecutiveCycles != 0 {
		t.Errorf("consecutive cycles = %d, want 0", m.ConsecutiveCycles)
	}
}

func TestCompletionRateExcludesSkipped(t *testing.T) {
	f := setup(t, 80)
	members := f.addMembers(t, 1)

	f.seedCycle(t, f.now, members,
		model.AssignmentCompleted, model.AssignmentSkipped, model.AssignmentPending,
	)

	rate, err := f.engine.CompletionRate(f.home.ID)
	if err != nil {
		t.Fatalf("completion rate: %v", err)
	}
	// 1 of 2 non-skipped.
	if rate != 50 {
		t.Errorf("rate = %d, want 50", rate)
	}
}

func TestCompletionRateEmptyCycle(t *testing.T) {
	f := setup(t, 80)
	f.addMembers(t, 1)

	rate, err := f.engine.CompletionRate(f.home.ID)
	if err != nil {
		t.Fatalf("completion rate: %v", err)
	}
	if rate != 0 {
		t.Errorf("rate = %d, want 0 for empty cycle", rate)
	}
}

func TestEquityCountsIdleMembers(t *testing.T) {
	f := setup(t, 80)
	members := f.addMembers(t, 2)

	// Everything lands on the first member; the second is idle.
	f.seedCycle(t, f.now, members[:1],
		model.AssignmentCompleted, model.AssignmentCompleted,
	)

	equity, err := f.engine.EquityRate(f.home.ID)
	if err != nil {
		t.Fatalf("equity rate: %v", err)
	}
	// max 2, min 0: imbalance 100%, equity 0.
	if equity != 0 {
		t.Errorf("equity = %d, want 0", equity)
	}
}

func TestEquityNoAssignments(t *testing.T) {
	f := setup(t, 80)
	f.addMembers(t, 3)

	equity, err := f.engine.EquityRate(f.home.ID)
	if err != nil {
		t.Fatalf("equity rate: %v", err)
	}
	if equity != 100 {
		t.Errorf("equity = %d, want 100 for empty cycle", equity)
	}
}

func TestConsecutiveCyclesWalkBack(t *testing.T) {
	f := setup(t, 80)
	members := f.addMembers(t, 1)

	currentStart := cycle.Start(f.home.RotationPolicy, f.now)
	prev1 := cycle.Previous(f.home.RotationPolicy, currentStart)
	prev2 := cycle.Previous(f.home.RotationPolicy, prev1)
	prev3 := cycle.Previous(f.home.RotationPolicy, prev2)

	// Current and two previous cycles all complete; the one before misses.
	f.seedCycle(t, f.now, members, model.AssignmentCompleted, model.AssignmentCompleted)
	f.seedCycle(t, prev1, members, model.AssignmentCompleted, model.AssignmentCompleted)
	f.seedCycle(t, prev2, members, model.AssignmentCompleted, model.AssignmentCompleted)
	f.seedCycle(t, prev3, members, model.AssignmentCompleted, model.AssignmentSkipped)

	streak, err := f.engine.ConsecutiveCycles(f.home.ID)
	if err != nil {
		t.Fatalf("consecutive cycles: %v", err)
	}
	if streak != 3 {
		t.Errorf("streak = %d, want 3", streak)
	}
}

// Past cycles grade skipped assignments against the goal: a rolled-over cycle
// where half the work was abandoned is not a 100% cycle.
func TestConsecutiveCyclesCountsSkipped(t *testing.T) {
	f := setup(t, 80)
	members := f.addMembers(t, 1)

	currentStart := cycle.Start(f.home.RotationPolicy, f.now)
	prev1 := cycle.Previous(f.home.RotationPolicy, currentStart)

	f.seedCycle(t, f.now, members, model.AssignmentCompleted)
	f.seedCycle(t, prev1, members, model.AssignmentCompleted, model.AssignmentSkipped)

	streak, err := f.engine.ConsecutiveCycles(f.home.ID)
	if err != nil {
		t.Fatalf("consecutive cycles: %v", err)
	}
	// Current cycle passes, previous is 50%: streak stops at 1.
	if streak != 1 {
		t.Errorf("streak = %d, want 1", streak)
	}
}

func TestConsecutiveCyclesEmptyHistoryBreaks(t *testing.T) {
	f := setup(t, 80)
	members := f.addMembers(t, 1)

	// Only the current cycle has assignments.
	f.seedCycle(t, f.now, members, model.AssignmentCompleted)

	streak, err := f.engine.ConsecutiveCycles(f.home.ID)
	if err != nil {
		t.Fatalf("consecutive cycles: %v", err)
	}
	if streak != 1 {
		t.Errorf("streak = %d, want 1", streak)
	}
}

func TestMetricsUnknownHome(t *testing.T) {
	f := setup(t, 80)

	_, err := f.engine.HomeMetrics(999)
	if err != ErrHomeNotFound {
		t.Errorf("err = %v, want ErrHomeNotFound", err)
	}
}
