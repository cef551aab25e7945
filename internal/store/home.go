package store

import (
	"database/sql"
	"fmt"

	"github.com/choreloop/choreloop/internal/model"
)

type HomeStore struct {
	db *sql.DB
}

func NewHomeStore(db *sql.DB) *HomeStore {
	return &HomeStore{db: db}
}

func scanHome(scanner interface{ Scan(...any) error }) (*model.Home, error) {
	var h model.Home
	err := scanner.Scan(&h.ID, &h.Name, &h.RotationPolicy, &h.GoalPercentage, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const homeCols = `id, name, rotation_policy, goal_percentage, created_at, updated_at`

func (s *HomeStore) Create(name string, policy model.RotationPolicy, goalPercentage int) (*model.Home, error) {
	result, err := s.db.Exec(
		`INSERT INTO homes (name, rotation_policy, goal_percentage) VALUES (?, ?, ?)`,
		name, policy, goalPercentage,
	)
	if err != nil {
		return nil, fmt.Errorf("insert home: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HomeStore) GetByID(id int64) (*model.Home, error) {
	row := s.db.QueryRow(`SELECT `+homeCols+` FROM homes WHERE id = ?`, id)
	h, err := scanHome(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get home: %w", err)
	}
	return h, nil
}

func (s *HomeStore) Update(id int64, name string, policy model.RotationPolicy, goalPercentage int) (*model.Home, error) {
	_, err := s.db.Exec(
		`UPDATE homes SET name = ?, rotation_policy = ?, goal_percentage = ?, updated_at = datetime('now') WHERE id = ?`,
		name, policy, goalPercentage, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update home: %w", err)
	}
	return s.GetByID(id)
}

func (s *HomeStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM homes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete home: %w", err)
	}
	return nil
}
