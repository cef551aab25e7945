package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/choreloop/choreloop/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var active int

	err := scanner.Scan(
		&t.ID, &t.HomeID, &t.Title, &t.Description,
		&t.Frequency, &t.EffortPoints, &active,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.IsActive = active != 0
	return &t, nil
}

const taskCols = `id, home_id, title, description, frequency, effort_points, is_active, created_at, updated_at`

func (s *TaskStore) Create(homeID int64, title, description string, freq model.Frequency, effortPoints int, isActive bool) (*model.Task, error) {
	var a int
	if isActive {
		a = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (home_id, title, description, frequency, effort_points, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		homeID, title, description, freq, effortPoints, a,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByHome(homeID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE home_id = ? ORDER BY id ASC`,
		homeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListActiveByHome returns active tasks in creation order, which is the
// stable walk order the rotation engine assigns in.
func (s *TaskStore) ListActiveByHome(homeID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE home_id = ? AND is_active = 1 ORDER BY id ASC`,
		homeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListUnassignedActive returns active tasks with no assignment at all in the
// given window, regardless of assignment status. These surface in the reclaim
// pool as never-assigned entries.
func (s *TaskStore) ListUnassignedActive(homeID int64, start, end time.Time) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks t
		 WHERE t.home_id = ? AND t.is_active = 1
		   AND NOT EXISTS (
		       SELECT 1 FROM assignments a
		       WHERE a.task_id = t.id AND a.assigned_date >= ? AND a.assigned_date <= ?
		   )
		 ORDER BY t.id ASC`,
		homeID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list unassigned tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(id int64, title, description string, freq model.Frequency, effortPoints int, isActive bool) (*model.Task, error) {
	var a int
	if isActive {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, frequency = ?, effort_points = ?, is_active = ?, updated_at = datetime('now') WHERE id = ?`,
		title, description, freq, effortPoints, a, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
