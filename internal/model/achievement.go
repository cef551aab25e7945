package model

import "time"

// RequirementType is the closed set of achievement unlock rules. Each kind is
// evaluated against current member or home state by the progression engine.
type RequirementType string

const (
	ReqOnboarding         RequirementType = "onboarding"
	ReqWeeksActive        RequirementType = "weeks_active"
	ReqStreakDays         RequirementType = "streak_days"
	ReqCollaborations     RequirementType = "collaborations"
	ReqLevelReached       RequirementType = "level_reached"
	ReqEquityWeeks        RequirementType = "equity_weeks"
	ReqConsecutiveWeeks80 RequirementType = "consecutive_weeks_80"
	ReqMasterLevel        RequirementType = "master_level"
)

type Achievement struct {
	ID               int64           `json:"id"`
	Code             string          `json:"code"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	RequirementType  RequirementType `json:"requirement_type"`
	RequirementValue int             `json:"requirement_value"`
}

type MemberAchievement struct {
	MemberID      int64     `json:"member_id"`
	AchievementID int64     `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// MemberProgress is the derived view returned by getMemberProgress.
type MemberProgress struct {
	MemberID     int64         `json:"member_id"`
	Level        MasteryLevel  `json:"level"`
	Score        float64       `json:"score"`
	Achievements []Achievement `json:"achievements"`
}
