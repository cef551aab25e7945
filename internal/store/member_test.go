package store

import (
	"testing"

	"github.com/choreloop/choreloop/internal/model"
)

func setupMemberTest(t *testing.T) (*MemberStore, int64) {
	t.Helper()
	db := openTestDB(t)
	hs := NewHomeStore(db)
	home, err := hs.Create("Test Home", model.PolicyWeekly, 80)
	if err != nil {
		t.Fatalf("create home: %v", err)
	}
	return NewMemberStore(db), home.ID
}

func TestMemberDefaults(t *testing.T) {
	ms, homeID := setupMemberTest(t)

	m, err := ms.Create(homeID, "Ada", model.MemberActive)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if m.TotalPoints != 0 || m.TasksCompleted != 0 || m.CurrentStreak != 0 || m.WeeksActive != 0 {
		t.Errorf("fresh member counters not zero: %+v", m)
	}
	if m.MasteryLevel != model.LevelNovice {
		t.Errorf("fresh member level = %q, want novice", m.MasteryLevel)
	}
}

func TestListActiveOrderedByPoints(t *testing.T) {
	ms, homeID := setupMemberTest(t)

	a, _ := ms.Create(homeID, "Ada", model.MemberActive)
	b, _ := ms.Create(homeID, "Bo", model.MemberActive)
	c, _ := ms.Create(homeID, "Cy", model.MemberActive)
	if _, err := ms.Create(homeID, "Dormant", model.MemberInactive); err != nil {
		t.Fatalf("create inactive member: %v", err)
	}

	if err := ms.RecordCompletion(a.ID, 10); err != nil {
		t.Fatalf("record completion: %v", err)
	}
	if err := ms.RecordCompletion(c.ID, 5); err != nil {
		t.Fatalf("record completion: %v", err)
	}

	active, err := ms.ListActiveByHome(homeID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("expected 3 active members, got %d", len(active))
	}

	// Fewest points first: Bo (0), Cy (5), Ada (10).
	wantOrder := []int64{b.ID, c.ID, a.ID}
	for i, want := range wantOrder {
		if active[i].ID != want {
			t.Errorf("active[%d].ID = %d, want %d", i, active[i].ID, want)
		}
	}
}

func TestRecordCompletionIncrements(t *testing.T) {
	ms, homeID := setupMemberTest(t)

	m, _ := ms.Create(homeID, "Ada", model.MemberActive)

	for i := 0; i < 3; i++ {
		if err := ms.RecordCompletion(m.ID, 4); err != nil {
			t.Fatalf("record completion %d: %v", i, err)
		}
	}

	got, err := ms.GetByID(m.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got.TotalPoints != 12 {
		t.Errorf("total_points = %d, want 12", got.TotalPoints)
	}
	if got.TasksCompleted != 3 {
		t.Errorf("tasks_completed = %d, want 3", got.TasksCompleted)
	}
}

func TestMemberCounterSetters(t *testing.T) {
	ms, homeID := setupMemberTest(t)

	m, _ := ms.Create(homeID, "Ada", model.MemberActive)

	if err := ms.SetStreak(m.ID, 5); err != nil {
		t.Fatalf("set streak: %v", err)
	}
	if err := ms.SetWeeksActive(m.ID, 2); err != nil {
		t.Fatalf("set weeks active: %v", err)
	}
	if err := ms.SetMasteryLevel(m.ID, model.LevelSolver); err != nil {
		t.Fatalf("set mastery level: %v", err)
	}

	got, _ := ms.GetByID(m.ID)
	if got.CurrentStreak != 5 || got.WeeksActive != 2 || got.MasteryLevel != model.LevelSolver {
		t.Errorf("member after setters = %+v", got)
	}
}
