package cycle

import (
	"time"

	"github.com/choreloop/choreloop/internal/model"
)

// This package is the single source of cycle boundary math. Every caller
// (rotation, rollover, metrics) must go through it so the window used to
// query history never drifts from the window used to decide rollover.

// Start returns the beginning of the cycle containing ref.
//
//	daily:    midnight of ref
//	weekly:   most recent Sunday at midnight
//	biweekly: the 1st or the 15th, whichever is the latest one <= ref's day
//	monthly:  the 1st of the month
//
// Unrecognized policies fall back to weekly.
func Start(policy model.RotationPolicy, ref time.Time) time.Time {
	day := startOfDay(ref)

	switch policy {
	case model.PolicyDaily:
		return day
	case model.PolicyBiweekly:
		if ref.Day() >= 15 {
			return time.Date(ref.Year(), ref.Month(), 15, 0, 0, 0, 0, ref.Location())
		}
		return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	case model.PolicyMonthly:
		return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	default:
		return day.AddDate(0, 0, -int(day.Weekday()))
	}
}

// End returns the last instant of the cycle beginning at start: start plus
// the policy's duration, minus one second.
func End(policy model.RotationPolicy, start time.Time) time.Time {
	return advance(policy, start).Add(-time.Second)
}

// Next returns the instant the cycle after start begins. Matches End, which
// is inclusive of the cycle's last second.
func Next(policy model.RotationPolicy, start time.Time) time.Time {
	return End(policy, start)
}

// Previous returns the start of the cycle immediately before the one
// beginning at start.
func Previous(policy model.RotationPolicy, start time.Time) time.Time {
	return Start(policy, start.Add(-time.Second))
}

// DueDate computes an assignment's due date from its assigned date and the
// task frequency, using the same four offsets as the cycle durations.
func DueDate(freq model.Frequency, assigned time.Time) time.Time {
	switch freq {
	case model.FreqDaily:
		return assigned.AddDate(0, 0, 1)
	case model.FreqBiweekly:
		return assigned.AddDate(0, 0, 14)
	case model.FreqMonthly:
		return assigned.AddDate(0, 1, 0)
	default:
		return assigned.AddDate(0, 0, 7)
	}
}

// Lookback is the bounded number of past cycles the streak computation may
// walk, chosen per policy for cost control.
func Lookback(policy model.RotationPolicy) int {
	switch policy {
	case model.PolicyDaily:
		return 30
	case model.PolicyBiweekly:
		return 6
	case model.PolicyMonthly:
		return 3
	default:
		return 12
	}
}

func advance(policy model.RotationPolicy, start time.Time) time.Time {
	switch policy {
	case model.PolicyDaily:
		return start.AddDate(0, 0, 1)
	case model.PolicyBiweekly:
		return start.AddDate(0, 0, 14)
	case model.PolicyMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 7)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
