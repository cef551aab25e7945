package model

import "time"

// AuditEntry is a human-readable record of an engine action (cycle closures,
// reassignments). Append-only; ids are generated app-side.
type AuditEntry struct {
	ID        string    `json:"id"`
	HomeID    int64     `json:"home_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
