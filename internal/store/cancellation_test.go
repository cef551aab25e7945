package store

import (
	"testing"
	"time"

	"github.com/choreloop/choreloop/internal/model"
)

func setupCancellationTest(t *testing.T) (*CancellationStore, assignmentFixture) {
	t.Helper()
	f := setupAssignmentTest(t)
	return NewCancellationStore(f.assignments.db), f
}

func TestCancellationUpsertReopens(t *testing.T) {
	cs, f := setupCancellationTest(t)

	now := time.Now().UTC()
	a, _ := f.assignments.Create(f.taskID, f.memberID, now, now.AddDate(0, 0, 7), model.AssignmentPending)

	c, err := cs.Upsert(a.ID, f.memberID, "travelling")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !c.IsAvailable {
		t.Error("fresh cancellation should be available")
	}
	if c.Reason != "travelling" {
		t.Errorf("reason = %q, want travelling", c.Reason)
	}

	if err := cs.MarkTaken(c.ID, f.memberID, now); err != nil {
		t.Fatalf("mark taken: %v", err)
	}
	got, _ := cs.GetByID(c.ID)
	if got.IsAvailable {
		t.Error("taken cancellation should not be available")
	}
	if got.TakenBy == nil || *got.TakenBy != f.memberID {
		t.Errorf("taken_by = %v, want %d", got.TakenBy, f.memberID)
	}

	// A second cancellation of the same assignment reopens the existing row.
	again, err := cs.Upsert(a.ID, f.memberID, "still travelling")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again.ID != c.ID {
		t.Errorf("upsert created new row %d, want reuse of %d", again.ID, c.ID)
	}
	if !again.IsAvailable {
		t.Error("reopened cancellation should be available")
	}
	if again.TakenBy != nil || again.TakenAt != nil {
		t.Errorf("reopened cancellation still marked taken: %+v", again)
	}
}

func TestListOpenByHomeAndRange(t *testing.T) {
	cs, f := setupCancellationTest(t)

	start := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7).Add(-time.Second)

	inWindow, _ := f.assignments.Create(f.taskID, f.memberID, start.Add(time.Hour), end, model.AssignmentSkipped)
	outOfWindow, _ := f.assignments.Create(f.taskID, f.memberID, end.Add(time.Hour), end.AddDate(0, 0, 7), model.AssignmentSkipped)

	if _, err := cs.Upsert(inWindow.ID, f.memberID, ""); err != nil {
		t.Fatalf("upsert in window: %v", err)
	}
	if _, err := cs.Upsert(outOfWindow.ID, f.memberID, ""); err != nil {
		t.Fatalf("upsert out of window: %v", err)
	}

	open, err := cs.ListOpenByHomeAndRange(f.homeID, start, end)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open cancellation in window, got %d", len(open))
	}
	if open[0].AssignmentID != inWindow.ID {
		t.Errorf("open[0].AssignmentID = %d, want %d", open[0].AssignmentID, inWindow.ID)
	}

	// Taken cancellations drop out of the pool.
	if err := cs.MarkTaken(open[0].ID, f.memberID, time.Now()); err != nil {
		t.Fatalf("mark taken: %v", err)
	}
	open, _ = cs.ListOpenByHomeAndRange(f.homeID, start, end)
	if len(open) != 0 {
		t.Errorf("expected empty pool after take, got %d", len(open))
	}
}
