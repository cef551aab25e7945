package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/choreloop/choreloop/internal/model"
)

type CancellationStore struct {
	db *sql.DB
}

func NewCancellationStore(db *sql.DB) *CancellationStore {
	return &CancellationStore{db: db}
}

func scanCancellation(scanner interface{ Scan(...any) error }) (*model.Cancellation, error) {
	var c model.Cancellation
	var available int
	var takenBy sql.NullInt64
	var takenAt sql.NullTime

	err := scanner.Scan(&c.ID, &c.AssignmentID, &c.CancelledBy, &c.Reason, &available, &takenBy, &takenAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.IsAvailable = available != 0
	if takenBy.Valid {
		c.TakenBy = &takenBy.Int64
	}
	if takenAt.Valid {
		t := takenAt.Time
		c.TakenAt = &t
	}
	return &c, nil
}

const cancellationCols = `id, assignment_id, cancelled_by, reason, is_available, taken_by, taken_at, created_at`

// Upsert records a cancellation for the assignment, reopening it for reclaim
// if one already exists. One cancellation per assignment.
func (s *CancellationStore) Upsert(assignmentID, cancelledBy int64, reason string) (*model.Cancellation, error) {
	_, err := s.db.Exec(
		`INSERT INTO cancellations (assignment_id, cancelled_by, reason)
		 VALUES (?, ?, ?)
		 ON CONFLICT(assignment_id) DO UPDATE SET
		     cancelled_by = excluded.cancelled_by,
		     reason = excluded.reason,
		     is_available = 1,
		     taken_by = NULL,
		     taken_at = NULL`,
		assignmentID, cancelledBy, reason,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert cancellation: %w", err)
	}
	return s.GetByAssignment(assignmentID)
}

func (s *CancellationStore) GetByID(id int64) (*model.Cancellation, error) {
	row := s.db.QueryRow(`SELECT `+cancellationCols+` FROM cancellations WHERE id = ?`, id)
	c, err := scanCancellation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cancellation: %w", err)
	}
	return c, nil
}

func (s *CancellationStore) GetByAssignment(assignmentID int64) (*model.Cancellation, error) {
	row := s.db.QueryRow(`SELECT `+cancellationCols+` FROM cancellations WHERE assignment_id = ?`, assignmentID)
	c, err := scanCancellation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cancellation by assignment: %w", err)
	}
	return c, nil
}

// ListOpenByHomeAndRange returns available cancellations whose assignment was
// assigned within [start, end].
func (s *CancellationStore) ListOpenByHomeAndRange(homeID int64, start, end time.Time) ([]model.Cancellation, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.assignment_id, c.cancelled_by, c.reason, c.is_available, c.taken_by, c.taken_at, c.created_at
		 FROM cancellations c
		 JOIN assignments a ON c.assignment_id = a.id
		 JOIN tasks t ON a.task_id = t.id
		 WHERE t.home_id = ? AND c.is_available = 1
		   AND a.assigned_date >= ? AND a.assigned_date <= ?
		 ORDER BY c.id ASC`,
		homeID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list open cancellations: %w", err)
	}
	defer rows.Close()

	var cancellations []model.Cancellation
	for rows.Next() {
		c, err := scanCancellation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cancellation: %w", err)
		}
		cancellations = append(cancellations, *c)
	}
	return cancellations, rows.Err()
}

// MarkTaken closes the cancellation: it is no longer available for reclaim.
func (s *CancellationStore) MarkTaken(id, takenBy int64, takenAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE cancellations SET is_available = 0, taken_by = ?, taken_at = ? WHERE id = ?`,
		takenBy, takenAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark cancellation taken: %w", err)
	}
	return nil
}
