package metrics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/choreloop/choreloop/internal/cycle"
	"github.com/choreloop/choreloop/internal/model"
	"github.com/choreloop/choreloop/internal/store"
)

// ErrHomeNotFound is returned when metrics are requested for an unknown home.
var ErrHomeNotFound = errors.New("home not found")

// Engine computes completion rate, distribution equity, and the consecutive
// goal-met cycle streak. All three are derived from assignment history on
// every query; nothing is stored, so the numbers can never drift from the
// assignment state machine.
type Engine struct {
	homes       *store.HomeStore
	members     *store.MemberStore
	assignments *store.AssignmentStore

	// now is swappable for tests.
	now func() time.Time
}

func NewEngine(hs *store.HomeStore, ms *store.MemberStore, as *store.AssignmentStore) *Engine {
	return &Engine{homes: hs, members: ms, assignments: as, now: time.Now}
}

// CompletionRate returns the percentage of current-cycle assignments that are
// completed, ignoring skipped ones. A cycle with no assignments is 0%.
func (e *Engine) CompletionRate(homeID int64) (int, error) {
	home, err := e.loadHome(homeID)
	if err != nil {
		return 0, err
	}

	start := cycle.Start(home.RotationPolicy, e.now())
	end := cycle.End(home.RotationPolicy, start)
	rate, _, err := e.completionRateForWindow(homeID, start, end)
	return rate, err
}

// EquityRate returns a 0-100 score for how evenly current-cycle assignments
// are spread across active members. No assignments, or nobody with any, is
// perfectly balanced by vacuity: 100.
func (e *Engine) EquityRate(homeID int64) (int, error) {
	home, err := e.loadHome(homeID)
	if err != nil {
		return 0, err
	}

	start := cycle.Start(home.RotationPolicy, e.now())
	end := cycle.End(home.RotationPolicy, start)

	assignments, err := e.assignments.ListByHomeAndRange(homeID, start, end)
	if err != nil {
		return 0, fmt.Errorf("load cycle assignments: %w", err)
	}
	if len(assignments) == 0 {
		return 100, nil
	}

	counts := make(map[int64]int)
	for _, a := range assignments {
		counts[a.MemberID]++
	}

	// Active members with nothing assigned still count: one idle member
	// lowers equity.
	members, err := e.members.ListActiveByHome(homeID)
	if err != nil {
		return 0, fmt.Errorf("load active members: %w", err)
	}
	for _, m := range members {
		if _, ok := counts[m.ID]; !ok {
			counts[m.ID] = 0
		}
	}

	minCount, maxCount := -1, 0
	for _, n := range counts {
		if minCount < 0 || n < minCount {
			minCount = n
		}
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		return 100, nil
	}

	imbalance := int(math.Round(float64(maxCount-minCount) / float64(maxCount) * 100))
	return 100 - imbalance, nil
}

// ConsecutiveCycles counts how many cycles in a row, most recent first, met
// the home's goal percentage. The walk starts at the current cycle and stops
// at the first cycle that misses the goal or has no assignments at all — an
// empty cycle breaks the streak rather than being skipped. Lookback is
// bounded per policy for cost control.
func (e *Engine) ConsecutiveCycles(homeID int64) (int, error) {
	home, err := e.loadHome(homeID)
	if err != nil {
		return 0, err
	}

	start := cycle.Start(home.RotationPolicy, e.now())
	streak := 0

	for i := 0; i < cycle.Lookback(home.RotationPolicy); i++ {
		end := cycle.End(home.RotationPolicy, start)

		// Skipped assignments count against past cycles here: rollover
		// already converted their stale pending work to skipped, so a
		// non-skipped denominator would grade every closed cycle 100%.
		assignments, err := e.assignments.ListByHomeAndRange(homeID, start, end)
		if err != nil {
			return 0, fmt.Errorf("load window assignments: %w", err)
		}
		if len(assignments) == 0 {
			break
		}
		completed := 0
		for _, a := range assignments {
			if a.Status == model.AssignmentCompleted {
				completed++
			}
		}
		rate := int(math.Round(float64(completed) / float64(len(assignments)) * 100))
		if rate < home.GoalPercentage {
			break
		}
		streak++
		start = cycle.Previous(home.RotationPolicy, start)
	}

	return streak, nil
}

// HomeMetrics bundles all three derived numbers for the presentation layer.
func (e *Engine) HomeMetrics(homeID int64) (*model.HomeMetrics, error) {
	completion, err := e.CompletionRate(homeID)
	if err != nil {
		return nil, err
	}
	equity, err := e.EquityRate(homeID)
	if err != nil {
		return nil, err
	}
	consecutive, err := e.ConsecutiveCycles(homeID)
	if err != nil {
		return nil, err
	}

	return &model.HomeMetrics{
		HomeID:            homeID,
		CompletionPct:     completion,
		EquityPct:         equity,
		ConsecutiveCycles: consecutive,
	}, nil
}

func (e *Engine) loadHome(homeID int64) (*model.Home, error) {
	home, err := e.homes.GetByID(homeID)
	if err != nil {
		return nil, fmt.Errorf("load home: %w", err)
	}
	if home == nil {
		return nil, ErrHomeNotFound
	}
	return home, nil
}

// completionRateForWindow computes completed / non-skipped x 100 for the
// window, rounded. It also returns the non-skipped total so callers can tell
// an empty window apart from a 0% one.
func (e *Engine) completionRateForWindow(homeID int64, start, end time.Time) (int, int, error) {
	assignments, err := e.assignments.ListByHomeAndRange(homeID, start, end)
	if err != nil {
		return 0, 0, fmt.Errorf("load window assignments: %w", err)
	}

	total, completed := 0, 0
	for _, a := range assignments {
		if a.Status == model.AssignmentSkipped {
			continue
		}
		total++
		if a.Status == model.AssignmentCompleted {
			completed++
		}
	}
	if total == 0 {
		return 0, 0, nil
	}

	rate := int(math.Round(float64(completed) / float64(total) * 100))
	return rate, total, nil
}
