// Package ledger holds the value types shared by every monetary
// component: amounts in integer minor units, payout percentages and
// funding windows. Pure validation, no I/O.
package ledger

import (
	"time"

	"github.com/0xdevcollins/boundless-backend/internal/apperr"
	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units (e.g. cents). Integer minor
// units keep persisted state free of floating-point drift.
type Amount = int64

// ParseAmount parses a decimal string ("12.50") into minor units with the
// given number of decimals. Fractions beyond the scale are rejected, not
// rounded.
func ParseAmount(s string, decimals int32) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, apperr.InvalidArgument("invalid amount %q", s)
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return 0, apperr.InvalidArgument("amount %q exceeds %d decimal places", s, decimals)
	}
	return scaled.IntPart(), nil
}

// FormatAmount renders minor units back to a decimal string.
func FormatAmount(a Amount, decimals int32) string {
	return decimal.NewFromInt(a).Shift(-decimals).StringFixed(decimals)
}

// ValidatePercents checks a milestone payout schedule: every percentage
// in (0, 100] and the total exactly 100.
func ValidatePercents(percents []int) error {
	if len(percents) == 0 {
		return apperr.PreconditionFailed("at least one milestone is required")
	}
	sum := 0
	for _, p := range percents {
		if p <= 0 || p > 100 {
			return apperr.InvalidArgument("milestone payout percentage must be between 1 and 100, got %d", p)
		}
		sum += p
	}
	if sum != 100 {
		return apperr.PreconditionFailed("milestone payout percentages must sum to 100, got %d", sum)
	}
	return nil
}

// PayoutAmount computes goal × percent / 100, rounding down so a schedule
// never pays out more than the goal.
func PayoutAmount(goal Amount, percent int) Amount {
	return decimal.NewFromInt(goal).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}

// Bounds is a per-contribution [min, max] limit. A zero bound means
// unbounded on that side.
type Bounds struct {
	Min Amount
	Max Amount
}

// Check validates a contribution amount against the bounds.
func (b Bounds) Check(amount Amount) error {
	if amount <= 0 {
		return apperr.InvalidArgument("contribution amount must be positive")
	}
	if b.Min > 0 && amount < b.Min {
		return apperr.InvalidArgument("contribution amount is below the minimum of %d", b.Min)
	}
	if b.Max > 0 && amount > b.Max {
		return apperr.InvalidArgument("contribution amount exceeds the maximum of %d", b.Max)
	}
	return nil
}

// Narrow overlays non-zero target-specific bounds onto platform bounds.
func (b Bounds) Narrow(min, max Amount) Bounds {
	out := b
	if min > 0 {
		out.Min = min
	}
	if max > 0 {
		out.Max = max
	}
	return out
}

// Window is a half-open funding window [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate checks the window is well formed and ends in the future.
func (w Window) Validate(now time.Time) error {
	if w.End.IsZero() {
		return apperr.InvalidArgument("funding end date is required")
	}
	if !w.Start.IsZero() && !w.Start.Before(w.End) {
		return apperr.InvalidArgument("funding window must start before it ends")
	}
	if !w.End.After(now) {
		return apperr.InvalidArgument("funding end date must be in the future")
	}
	return nil
}

// OpenAt reports whether the window accepts contributions at t.
func (w Window) OpenAt(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	return t.Before(w.End)
}
