package model

import "time"

type ExchangeKind string

const (
	ExchangeSwap  ExchangeKind = "swap"
	ExchangeCover ExchangeKind = "cover"
)

// ExchangeStatus transitions pending -> accepted | rejected and is then terminal.
type ExchangeStatus string

const (
	ExchangePending  ExchangeStatus = "pending"
	ExchangeAccepted ExchangeStatus = "accepted"
	ExchangeRejected ExchangeStatus = "rejected"
)

// ExchangeRequest asks another member to take over an assignment. On accept
// of a swap, the assignment's member is reassigned to the responder.
type ExchangeRequest struct {
	ID           int64          `json:"id"`
	AssignmentID int64          `json:"assignment_id"`
	RequestedBy  int64          `json:"requested_by"`
	ResponderID  int64          `json:"responder_id"`
	Kind         ExchangeKind   `json:"kind"`
	Status       ExchangeStatus `json:"status"`
	Message      string         `json:"message"`
	CreatedAt    time.Time      `json:"created_at"`
	RespondedAt  *time.Time     `json:"responded_at"`
}
