package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/choreloop/choreloop/internal/model"
)

type ExchangeStore struct {
	db *sql.DB
}

func NewExchangeStore(db *sql.DB) *ExchangeStore {
	return &ExchangeStore{db: db}
}

func scanExchange(scanner interface{ Scan(...any) error }) (*model.ExchangeRequest, error) {
	var e model.ExchangeRequest
	var respondedAt sql.NullTime

	err := scanner.Scan(
		&e.ID, &e.AssignmentID, &e.RequestedBy, &e.ResponderID,
		&e.Kind, &e.Status, &e.Message, &e.CreatedAt, &respondedAt,
	)
	if err != nil {
		return nil, err
	}

	if respondedAt.Valid {
		t := respondedAt.Time
		e.RespondedAt = &t
	}
	return &e, nil
}

const exchangeCols = `id, assignment_id, requested_by, responder_id, kind, status, message, created_at, responded_at`

func (s *ExchangeStore) Create(assignmentID, requestedBy, responderID int64, kind model.ExchangeKind, message string) (*model.ExchangeRequest, error) {
	result, err := s.db.Exec(
		`INSERT INTO exchange_requests (assignment_id, requested_by, responder_id, kind, message) VALUES (?, ?, ?, ?, ?)`,
		assignmentID, requestedBy, responderID, kind, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert exchange request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ExchangeStore) GetByID(id int64) (*model.ExchangeRequest, error) {
	row := s.db.QueryRow(`SELECT `+exchangeCols+` FROM exchange_requests WHERE id = ?`, id)
	e, err := scanExchange(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get exchange request: %w", err)
	}
	return e, nil
}

// Resolve moves a pending request to its terminal status. The status check in
// the WHERE clause makes the transition race-safe: only one resolver wins.
func (s *ExchangeStore) Resolve(id int64, status model.ExchangeStatus, respondedAt time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE exchange_requests SET status = ?, responded_at = ? WHERE id = ? AND status = 'pending'`,
		status, respondedAt.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("resolve exchange request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListPendingForMember returns open requests awaiting the member's response.
func (s *ExchangeStore) ListPendingForMember(responderID int64) ([]model.ExchangeRequest, error) {
	rows, err := s.db.Query(
		`SELECT `+exchangeCols+` FROM exchange_requests WHERE responder_id = ? AND status = 'pending' ORDER BY created_at ASC`,
		responderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending exchange requests: %w", err)
	}
	defer rows.Close()

	var requests []model.ExchangeRequest
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange request: %w", err)
		}
		requests = append(requests, *e)
	}
	return requests, rows.Err()
}
