package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/choreloop/choreloop/internal/model"
)

type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func scanAuditEntry(scanner interface{ Scan(...any) error }) (*model.AuditEntry, error) {
	var e model.AuditEntry
	err := scanner.Scan(&e.ID, &e.HomeID, &e.Message, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const auditCols = `id, home_id, message, created_at`

// Append records a human-readable audit entry for the home.
func (s *AuditStore) Append(homeID int64, message string) (*model.AuditEntry, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO audit_log (id, home_id, message) VALUES (?, ?, ?)`,
		id, homeID, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+auditCols+` FROM audit_log WHERE id = ?`, id)
	return scanAuditEntry(row)
}

// ListByHome returns the most recent entries first, capped at limit.
func (s *AuditStore) ListByHome(homeID int64, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+auditCols+` FROM audit_log WHERE home_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		homeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
