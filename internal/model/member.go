package model

import "time"

type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberPending  MemberStatus = "pending"
	MemberInactive MemberStatus = "inactive"
)

// MasteryLevel is a named progression tier derived from a member's
// composite engagement score.
type MasteryLevel string

const (
	LevelNovice    MasteryLevel = "novice"
	LevelSolver    MasteryLevel = "solver"
	LevelExpert    MasteryLevel = "expert"
	LevelMaster    MasteryLevel = "master"
	LevelVisionary MasteryLevel = "visionary"
)

var levelOrder = map[MasteryLevel]int{
	LevelNovice:    0,
	LevelSolver:    1,
	LevelExpert:    2,
	LevelMaster:    3,
	LevelVisionary: 4,
}

// Ordinal returns the position of the level in the fixed progression order,
// starting at 0 for novice. Unknown levels map to 0.
func (l MasteryLevel) Ordinal() int {
	return levelOrder[l]
}

type Member struct {
	ID             int64        `json:"id"`
	HomeID         int64        `json:"home_id"`
	Name           string       `json:"name"`
	Status         MemberStatus `json:"status"`
	TotalPoints    int          `json:"total_points"`
	TasksCompleted int          `json:"tasks_completed"`
	CurrentStreak  int          `json:"current_streak"`
	WeeksActive    int          `json:"weeks_active"`
	MasteryLevel   MasteryLevel `json:"mastery_level"`
	JoinedAt       time.Time    `json:"joined_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
