package cycle

import (
	"testing"
	"time"

	"github.com/choreloop/choreloop/internal/model"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestStartDaily(t *testing.T) {
	got := Start(model.PolicyDaily, date(2025, time.March, 12, 15))
	want := date(2025, time.March, 12, 0)
	if !got.Equal(want) {
		t.Errorf("Start = %v, want %v", got, want)
	}
}

func TestStartWeekly(t *testing.T) {
	tests := []struct {
		ref  time.Time
		want time.Time
	}{
		// Wednesday -> previous Sunday
		{date(2025, time.March, 12, 15), date(2025, time.March, 9, 0)},
		// Sunday is its own cycle start
		{date(2025, time.March, 9, 10), date(2025, time.March, 9, 0)},
		// Saturday -> Sunday six days earlier
		{date(2025, time.March, 15, 23), date(2025, time.March, 9, 0)},
	}

	for _, tt := range tests {
		got := Start(model.PolicyWeekly, tt.ref)
		if !got.Equal(tt.want) {
			t.Errorf("Start(weekly, %v) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestStartBiweekly(t *testing.T) {
	tests := []struct {
		ref  time.Time
		want time.Time
	}{
		{date(2025, time.March, 3, 12), date(2025, time.March, 1, 0)},
		{date(2025, time.March, 14, 12), date(2025, time.March, 1, 0)},
		{date(2025, time.March, 15, 0), date(2025, time.March, 15, 0)},
		{date(2025, time.March, 28, 12), date(2025, time.March, 15, 0)},
	}

	for _, tt := range tests {
		got := Start(model.PolicyBiweekly, tt.ref)
		if !got.Equal(tt.want) {
			t.Errorf("Start(biweekly, %v) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestStartMonthly(t *testing.T) {
	got := Start(model.PolicyMonthly, date(2025, time.February, 28, 20))
	want := date(2025, time.February, 1, 0)
	if !got.Equal(want) {
		t.Errorf("Start = %v, want %v", got, want)
	}
}

func TestEnd(t *testing.T) {
	tests := []struct {
		policy model.RotationPolicy
		start  time.Time
		want   time.Time
	}{
		{model.PolicyDaily, date(2025, time.March, 12, 0), time.Date(2025, time.March, 12, 23, 59, 59, 0, time.UTC)},
		{model.PolicyWeekly, date(2025, time.March, 9, 0), time.Date(2025, time.March, 15, 23, 59, 59, 0, time.UTC)},
		{model.PolicyBiweekly, date(2025, time.March, 1, 0), time.Date(2025, time.March, 14, 23, 59, 59, 0, time.UTC)},
		// Calendar month, not 30 days: February handles the short month.
		{model.PolicyMonthly, date(2025, time.February, 1, 0), time.Date(2025, time.February, 28, 23, 59, 59, 0, time.UTC)},
	}

	for _, tt := range tests {
		got := End(tt.policy, tt.start)
		if !got.Equal(tt.want) {
			t.Errorf("End(%s, %v) = %v, want %v", tt.policy, tt.start, got, tt.want)
		}
	}
}

// The reference instant always falls inside its own cycle.
func TestStartEndContainReference(t *testing.T) {
	policies := []model.RotationPolicy{
		model.PolicyDaily, model.PolicyWeekly, model.PolicyBiweekly, model.PolicyMonthly,
	}
	refs := []time.Time{
		date(2025, time.January, 1, 0),
		date(2025, time.February, 14, 12),
		date(2025, time.June, 15, 9),
		date(2025, time.December, 31, 18),
	}

	for _, p := range policies {
		for _, ref := range refs {
			start := Start(p, ref)
			end := End(p, start)
			if start.After(ref) {
				t.Errorf("Start(%s, %v) = %v is after the reference", p, ref, start)
			}
			if !ref.Before(end) {
				t.Errorf("End(%s, %v) = %v is not after the reference %v", p, start, end, ref)
			}
		}
	}
}

func TestNextMatchesEnd(t *testing.T) {
	start := date(2025, time.March, 9, 0)
	if got, want := Next(model.PolicyWeekly, start), End(model.PolicyWeekly, start); !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got, want)
	}
}

func TestPrevious(t *testing.T) {
	tests := []struct {
		policy model.RotationPolicy
		start  time.Time
		want   time.Time
	}{
		{model.PolicyWeekly, date(2025, time.March, 9, 0), date(2025, time.March, 2, 0)},
		{model.PolicyBiweekly, date(2025, time.March, 15, 0), date(2025, time.March, 1, 0)},
		{model.PolicyBiweekly, date(2025, time.March, 1, 0), date(2025, time.February, 15, 0)},
		{model.PolicyMonthly, date(2025, time.March, 1, 0), date(2025, time.February, 1, 0)},
		{model.PolicyDaily, date(2025, time.March, 12, 0), date(2025, time.March, 11, 0)},
	}

	for _, tt := range tests {
		got := Previous(tt.policy, tt.start)
		if !got.Equal(tt.want) {
			t.Errorf("Previous(%s, %v) = %v, want %v", tt.policy, tt.start, got, tt.want)
		}
	}
}

func TestDueDate(t *testing.T) {
	assigned := date(2025, time.January, 31, 0)
	tests := []struct {
		freq model.Frequency
		want time.Time
	}{
		{model.FreqDaily, date(2025, time.February, 1, 0)},
		{model.FreqWeekly, date(2025, time.February, 7, 0)},
		{model.FreqBiweekly, date(2025, time.February, 14, 0)},
		// AddDate normalizes Jan 31 + 1 month.
		{model.FreqMonthly, date(2025, time.March, 3, 0)},
	}

	for _, tt := range tests {
		got := DueDate(tt.freq, assigned)
		if !got.Equal(tt.want) {
			t.Errorf("DueDate(%s) = %v, want %v", tt.freq, got, tt.want)
		}
	}
}

func TestLookbackBounds(t *testing.T) {
	policies := []model.RotationPolicy{
		model.PolicyDaily, model.PolicyWeekly, model.PolicyBiweekly, model.PolicyMonthly,
	}
	for _, p := range policies {
		n := Lookback(p)
		if n < 3 || n > 30 {
			t.Errorf("Lookback(%s) = %d, want within [3, 30]", p, n)
		}
	}
}
