package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/choreloop/choreloop/internal/model"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// --- Assignment methods ---

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	err := scanner.Scan(&a.ID, &a.TaskID, &a.MemberID, &a.AssignedDate, &a.DueDate, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const assignmentCols = `id, task_id, member_id, assigned_date, due_date, status, created_at`

func (s *AssignmentStore) Create(taskID, memberID int64, assignedDate, dueDate time.Time, status model.AssignmentStatus) (*model.Assignment, error) {
	result, err := s.db.Exec(
		`INSERT INTO assignments (task_id, member_id, assigned_date, due_date, status) VALUES (?, ?, ?, ?, ?)`,
		taskID, memberID, assignedDate.UTC(), dueDate.UTC(), status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AssignmentStore) GetByID(id int64) (*model.Assignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// ListByHomeAndRange returns all assignments for the home whose assigned date
// falls within [start, end]. The end boundary is inclusive because a cycle
// end is the last instant of the cycle.
func (s *AssignmentStore) ListByHomeAndRange(homeID int64, start, end time.Time) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.task_id, a.member_id, a.assigned_date, a.due_date, a.status, a.created_at
		 FROM assignments a
		 JOIN tasks t ON a.task_id = t.id
		 WHERE t.home_id = ? AND a.assigned_date >= ? AND a.assigned_date <= ?
		 ORDER BY a.id ASC`,
		homeID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments by range: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *AssignmentStore) ListByMember(memberID int64) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT `+assignmentCols+` FROM assignments WHERE member_id = ? ORDER BY assigned_date DESC, id DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments by member: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// MarkSkippedByHomeAndRange closes out stale pending work: every pending
// assignment in the window becomes skipped. Returns how many were closed.
func (s *AssignmentStore) MarkSkippedByHomeAndRange(homeID int64, start, end time.Time) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE assignments SET status = 'skipped'
		 WHERE status = 'pending'
		   AND assigned_date >= ? AND assigned_date <= ?
		   AND task_id IN (SELECT id FROM tasks WHERE home_id = ?)`,
		start.UTC(), end.UTC(), homeID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark skipped: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DeleteFromDate removes assignments assigned on or after the given instant.
// Rollover uses this to converge when triggered concurrently: a not-yet-started
// cycle is deleted and recreated rather than accumulated.
func (s *AssignmentStore) DeleteFromDate(homeID int64, from time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM assignments
		 WHERE assigned_date >= ?
		   AND task_id IN (SELECT id FROM tasks WHERE home_id = ?)`,
		from.UTC(), homeID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete future assignments: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *AssignmentStore) UpdateStatus(id int64, status model.AssignmentStatus) error {
	_, err := s.db.Exec(`UPDATE assignments SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	return nil
}

// Reassign moves the assignment to a new owner. Used when a swap request is
// accepted.
func (s *AssignmentStore) Reassign(id, newMemberID int64) error {
	_, err := s.db.Exec(`UPDATE assignments SET member_id = ? WHERE id = ?`, newMemberID, id)
	if err != nil {
		return fmt.Errorf("reassign assignment: %w", err)
	}
	return nil
}

// ExistsForTaskMemberDay reports whether the member already holds an
// assignment for the task on the given calendar day, in any status. This is
// the duplicate guard the reclaim flow checks before creating.
func (s *AssignmentStore) ExistsForTaskMemberDay(taskID, memberID int64, day time.Time) (bool, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM assignments
		 WHERE task_id = ? AND member_id = ? AND assigned_date >= ? AND assigned_date < ?`,
		taskID, memberID, dayStart.UTC(), dayEnd.UTC(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check duplicate assignment: %w", err)
	}
	return n > 0, nil
}

// --- Completion methods ---

func scanAssignmentCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	err := scanner.Scan(&c.ID, &c.AssignmentID, &c.MemberID, &c.PointsEarned, &c.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const completionCols = `id, assignment_id, member_id, points_earned, completed_at`

func (s *AssignmentStore) CreateCompletion(assignmentID, memberID int64, pointsEarned int) (*model.Completion, error) {
	result, err := s.db.Exec(
		`INSERT INTO completions (assignment_id, member_id, points_earned) VALUES (?, ?, ?)`,
		assignmentID, memberID, pointsEarned,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+completionCols+` FROM completions WHERE id = ?`, id)
	return scanAssignmentCompletion(row)
}

func (s *AssignmentStore) ListCompletionsByMember(memberID int64) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM completions WHERE member_id = ? ORDER BY completed_at DESC, id DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions by member: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanAssignmentCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// LastCompletionForMember returns the member's most recent completion, or nil.
// The streak update compares its day against the new completion's day.
func (s *AssignmentStore) LastCompletionForMember(memberID int64) (*model.Completion, error) {
	row := s.db.QueryRow(
		`SELECT `+completionCols+` FROM completions WHERE member_id = ? ORDER BY completed_at DESC, id DESC LIMIT 1`,
		memberID,
	)
	c, err := scanAssignmentCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last completion: %w", err)
	}
	return c, nil
}
