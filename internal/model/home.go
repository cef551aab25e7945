package model

import "time"

// RotationPolicy determines the length of a home's rotation cycle.
type RotationPolicy string

const (
	PolicyDaily    RotationPolicy = "daily"
	PolicyWeekly   RotationPolicy = "weekly"
	PolicyBiweekly RotationPolicy = "biweekly"
	PolicyMonthly  RotationPolicy = "monthly"
)

// ValidPolicy reports whether p is one of the four recognized rotation policies.
func ValidPolicy(p RotationPolicy) bool {
	switch p {
	case PolicyDaily, PolicyWeekly, PolicyBiweekly, PolicyMonthly:
		return true
	}
	return false
}

type Home struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	RotationPolicy RotationPolicy `json:"rotation_policy"`
	GoalPercentage int            `json:"goal_percentage"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// HomeMetrics is the derived snapshot returned to the presentation layer.
// It is recomputed from assignment history on every query, never stored.
type HomeMetrics struct {
	HomeID            int64 `json:"home_id"`
	CompletionPct     int   `json:"completion_pct"`
	EquityPct         int   `json:"equity_pct"`
	ConsecutiveCycles int   `json:"consecutive_cycles"`
}
