package progression

import "github.com/choreloop/choreloop/internal/model"

// Score is the weighted composite engagement score:
// tasks completed, plus 3 per active week, plus a streak bonus capped at 10,
// plus 2 per unlocked achievement.
func Score(tasksCompleted, weeksActive, currentStreak, achievements int) float64 {
	streakBonus := 0.5 * float64(currentStreak)
	if streakBonus > 10 {
		streakBonus = 10
	}
	return float64(tasksCompleted) + 3*float64(weeksActive) + streakBonus + 2*float64(achievements)
}

// A member reaches a level if either the composite score or any single named
// counter crosses that level's bar.
type levelBar struct {
	level        model.MasteryLevel
	score        float64
	tasks        int
	weeks        int
	achievements int
}

// Evaluated top-down; the first bar that holds wins.
var levelBars = []levelBar{
	{model.LevelVisionary, 100, 60, 8, 8},
	{model.LevelMaster, 50, 30, 4, 5},
	{model.LevelExpert, 25, 12, 2, 3},
	{model.LevelSolver, 10, 3, 1, 2},
}

// LevelFor returns the mastery level for the given counters, defaulting to
// novice when no bar is crossed.
func LevelFor(score float64, tasksCompleted, weeksActive, achievements int) model.MasteryLevel {
	for _, bar := range levelBars {
		if score >= bar.score ||
			tasksCompleted >= bar.tasks ||
			weeksActive >= bar.weeks ||
			achievements >= bar.achievements {
			return bar.level
		}
	}
	return model.LevelNovice
}
