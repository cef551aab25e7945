package progression

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/choreloop/choreloop/internal/metrics"
	"github.com/choreloop/choreloop/internal/model"
	"github.com/choreloop/choreloop/internal/store"
)

// ErrMemberNotFound is returned for progress queries on unknown members.
var ErrMemberNotFound = errors.New("member not found")

// Engine derives a member's mastery level from the composite score and
// evaluates the achievement unlock rule set. Home-wide predicates (equity,
// goal streaks) come from the metrics engine.
type Engine struct {
	members      *store.MemberStore
	achievements *store.AchievementStore
	metrics      *metrics.Engine
	logger       *slog.Logger
}

func NewEngine(ms *store.MemberStore, as *store.AchievementStore, me *metrics.Engine, logger *slog.Logger) *Engine {
	return &Engine{members: ms, achievements: as, metrics: me, logger: logger}
}

// Progress returns the member's level, composite score, and unlocked
// achievements for display.
func (e *Engine) Progress(memberID int64) (*model.MemberProgress, error) {
	member, err := e.loadMember(memberID)
	if err != nil {
		return nil, err
	}

	unlocked, err := e.achievements.ListUnlocked(memberID)
	if err != nil {
		return nil, fmt.Errorf("load unlocked achievements: %w", err)
	}
	if unlocked == nil {
		unlocked = []model.Achievement{}
	}

	score := Score(member.TasksCompleted, member.WeeksActive, member.CurrentStreak, len(unlocked))
	return &model.MemberProgress{
		MemberID:     memberID,
		Level:        member.MasteryLevel,
		Score:        score,
		Achievements: unlocked,
	}, nil
}

// UpdateLevel recomputes the member's mastery level and stores it if it
// differs from the stored one. Levels can move down as well as up when the
// underlying counters change; no monotonicity is forced.
func (e *Engine) UpdateLevel(memberID int64) (model.MasteryLevel, bool, error) {
	member, err := e.loadMember(memberID)
	if err != nil {
		return "", false, err
	}

	unlocked, err := e.achievements.CountUnlocked(memberID)
	if err != nil {
		return "", false, fmt.Errorf("count unlocked achievements: %w", err)
	}

	score := Score(member.TasksCompleted, member.WeeksActive, member.CurrentStreak, unlocked)
	level := LevelFor(score, member.TasksCompleted, member.WeeksActive, unlocked)

	if level == member.MasteryLevel {
		return level, false, nil
	}

	if err := e.members.SetMasteryLevel(memberID, level); err != nil {
		return "", false, err
	}

	e.logger.Info("mastery level changed",
		"member_id", memberID,
		"from", member.MasteryLevel,
		"to", level,
		"score", score,
	)
	return level, true, nil
}

// CheckUnlocks evaluates every achievement not yet unlocked for the member
// and unlocks the satisfied ones. Returns the newly unlocked achievements for
// notification purposes. Idempotent per call: an already-unlocked achievement
// is never returned again.
func (e *Engine) CheckUnlocks(memberID int64) ([]model.Achievement, error) {
	member, err := e.loadMember(memberID)
	if err != nil {
		return nil, err
	}

	catalog, err := e.achievements.List()
	if err != nil {
		return nil, fmt.Errorf("load achievement catalog: %w", err)
	}
	unlockedIDs, err := e.achievements.UnlockedIDs(memberID)
	if err != nil {
		return nil, fmt.Errorf("load unlocked ids: %w", err)
	}

	// Home-wide stats are only computed if some candidate needs them, and
	// at most once per call.
	var homeStats *model.HomeMetrics

	var newlyUnlocked []model.Achievement
	for _, a := range catalog {
		if unlockedIDs[a.ID] {
			continue
		}

		if needsHomeStats(a.RequirementType) && homeStats == nil {
			homeStats, err = e.metrics.HomeMetrics(member.HomeID)
			if err != nil {
				return newlyUnlocked, fmt.Errorf("load home metrics: %w", err)
			}
		}

		if !e.satisfied(a, member, homeStats) {
			continue
		}

		if err := e.achievements.Unlock(memberID, a.ID); err != nil {
			return newlyUnlocked, err
		}
		newlyUnlocked = append(newlyUnlocked, a)
	}

	return newlyUnlocked, nil
}

func needsHomeStats(kind model.RequirementType) bool {
	switch kind {
	case model.ReqEquityWeeks, model.ReqConsecutiveWeeks80, model.ReqMasterLevel:
		return true
	}
	return false
}

func (e *Engine) satisfied(a model.Achievement, member *model.Member, home *model.HomeMetrics) bool {
	switch a.RequirementType {
	case model.ReqOnboarding:
		return true
	case model.ReqWeeksActive:
		return member.WeeksActive >= a.RequirementValue
	case model.ReqStreakDays:
		return member.CurrentStreak >= a.RequirementValue
	case model.ReqCollaborations:
		return member.TasksCompleted >= a.RequirementValue
	case model.ReqLevelReached:
		return member.MasteryLevel.Ordinal() >= a.RequirementValue-1
	case model.ReqEquityWeeks:
		// A low-imbalance snapshot of the home, not a multi-week average.
		return home.EquityPct <= 33
	case model.ReqConsecutiveWeeks80:
		return home.CompletionPct >= 80 && home.ConsecutiveCycles >= a.RequirementValue
	case model.ReqMasterLevel:
		return home.CompletionPct >= 85 && home.EquityPct <= 25
	default:
		e.logger.Warn("unknown achievement requirement", "achievement_id", a.ID, "kind", a.RequirementType)
		return false
	}
}

func (e *Engine) loadMember(memberID int64) (*model.Member, error) {
	member, err := e.members.GetByID(memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}
