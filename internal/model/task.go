package model

import "time"

// Frequency is how often a task recurs. It controls the due-date offset of
// each assignment, independent of the home's rotation policy.
type Frequency string

const (
	FreqDaily    Frequency = "daily"
	FreqWeekly   Frequency = "weekly"
	FreqBiweekly Frequency = "biweekly"
	FreqMonthly  Frequency = "monthly"
)

func ValidFrequency(f Frequency) bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly:
		return true
	}
	return false
}

type Task struct {
	ID           int64     `json:"id"`
	HomeID       int64     `json:"home_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Frequency    Frequency `json:"frequency"`
	EffortPoints int       `json:"effort_points"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
