package store

import (
	"database/sql"
	"fmt"

	"github.com/choreloop/choreloop/internal/model"
)

type AchievementStore struct {
	db *sql.DB
}

func NewAchievementStore(db *sql.DB) *AchievementStore {
	return &AchievementStore{db: db}
}

func scanAchievement(scanner interface{ Scan(...any) error }) (*model.Achievement, error) {
	var a model.Achievement
	err := scanner.Scan(&a.ID, &a.Code, &a.Title, &a.Description, &a.RequirementType, &a.RequirementValue)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const achievementCols = `id, code, title, description, requirement_type, requirement_value`

// List returns the full achievement catalog in id order.
func (s *AchievementStore) List() ([]model.Achievement, error) {
	rows, err := s.db.Query(`SELECT ` + achievementCols + ` FROM achievements ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []model.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achievements = append(achievements, *a)
	}
	return achievements, rows.Err()
}

func (s *AchievementStore) GetByID(id int64) (*model.Achievement, error) {
	row := s.db.QueryRow(`SELECT `+achievementCols+` FROM achievements WHERE id = ?`, id)
	a, err := scanAchievement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get achievement: %w", err)
	}
	return a, nil
}

// ListUnlocked returns the achievements the member has unlocked, oldest first.
func (s *AchievementStore) ListUnlocked(memberID int64) ([]model.Achievement, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.code, a.title, a.description, a.requirement_type, a.requirement_value
		 FROM achievements a
		 JOIN member_achievements ma ON a.id = ma.achievement_id
		 WHERE ma.member_id = ?
		 ORDER BY ma.unlocked_at ASC, a.id ASC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}
	defer rows.Close()

	var achievements []model.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achievements = append(achievements, *a)
	}
	return achievements, rows.Err()
}

// UnlockedIDs returns the set of achievement ids already unlocked for the member.
func (s *AchievementStore) UnlockedIDs(memberID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(
		`SELECT achievement_id FROM member_achievements WHERE member_id = ?`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list unlocked ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unlocked id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (s *AchievementStore) CountUnlocked(memberID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM member_achievements WHERE member_id = ?`,
		memberID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unlocked: %w", err)
	}
	return n, nil
}

// Unlock records the achievement for the member. Unlocking is append-only and
// idempotent: re-unlocking an id already present is a no-op, never an error.
func (s *AchievementStore) Unlock(memberID, achievementID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO member_achievements (member_id, achievement_id) VALUES (?, ?)`,
		memberID, achievementID,
	)
	if err != nil {
		return fmt.Errorf("unlock achievement: %w", err)
	}
	return nil
}
