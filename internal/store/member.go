package store

import (
	"database/sql"
	"fmt"

	"github.com/choreloop/choreloop/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(
		&m.ID, &m.HomeID, &m.Name, &m.Status,
		&m.TotalPoints, &m.TasksCompleted, &m.CurrentStreak, &m.WeeksActive,
		&m.MasteryLevel, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, home_id, name, status, total_points, tasks_completed, current_streak, weeks_active, mastery_level, joined_at, created_at, updated_at`

func (s *MemberStore) Create(homeID int64, name string, status model.MemberStatus) (*model.Member, error) {
	result, err := s.db.Exec(
		`INSERT INTO members (home_id, name, status) VALUES (?, ?, ?)`,
		homeID, name, status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) ListByHome(homeID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE home_id = ? ORDER BY created_at ASC, id ASC`,
		homeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// ListActiveByHome returns active members ordered ascending by total points.
// The rotation engine relies on this order: members with the least cumulative
// reward are offered tasks first.
func (s *MemberStore) ListActiveByHome(homeID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE home_id = ? AND status = 'active' ORDER BY total_points ASC, id ASC`,
		homeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Update(id int64, name string, status model.MemberStatus) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET name = ?, status = ?, updated_at = datetime('now') WHERE id = ?`,
		name, status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

// RecordCompletion bumps the cumulative counters with SQL-side increments so
// concurrent completions never lose an update.
func (s *MemberStore) RecordCompletion(id int64, points int) error {
	_, err := s.db.Exec(
		`UPDATE members
		 SET total_points = total_points + ?,
		     tasks_completed = tasks_completed + 1,
		     updated_at = datetime('now')
		 WHERE id = ?`,
		points, id,
	)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

func (s *MemberStore) SetStreak(id int64, streak int) error {
	_, err := s.db.Exec(
		`UPDATE members SET current_streak = ?, updated_at = datetime('now') WHERE id = ?`,
		streak, id,
	)
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}

func (s *MemberStore) SetWeeksActive(id int64, weeks int) error {
	_, err := s.db.Exec(
		`UPDATE members SET weeks_active = ?, updated_at = datetime('now') WHERE id = ?`,
		weeks, id,
	)
	if err != nil {
		return fmt.Errorf("set weeks active: %w", err)
	}
	return nil
}

func (s *MemberStore) SetMasteryLevel(id int64, level model.MasteryLevel) error {
	_, err := s.db.Exec(
		`UPDATE members SET mastery_level = ?, updated_at = datetime('now') WHERE id = ?`,
		level, id,
	)
	if err != nil {
		return fmt.Errorf("set mastery level: %w", err)
	}
	return nil
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}
