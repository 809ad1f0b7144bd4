// Package vesting computes how many shares of a grant have vested on a date.
package vesting

import (
	"cloud.google.com/go/civil"

	"vestquest-engine/internal/model"
)

// ComputeVestedShares returns the vested share count of g as of asOf.
// An overridden record is returned unchanged. A nil grant has nothing vested.
func ComputeVestedShares(g *model.Grant, asOf civil.Date) int64 {
	if g == nil {
		return 0
	}
	if v, ok := g.VestedShares.Override(); ok {
		return v
	}
	if g.TotalShares <= 0 {
		return 0
	}

	start := g.VestingStartDate
	end := g.EndDate()

	if asOf.Before(start) || asOf.Before(g.CliffDate()) {
		return 0
	}
	if !asOf.Before(end) {
		return g.TotalShares
	}

	period := g.VestingFrequency.PeriodMonths()
	total := totalPeriods(start, end, period)
	if total == 0 {
		return g.TotalShares
	}
	elapsed := int64(model.MonthsBetween(start, asOf) / period)

	// total*elapsed stays well inside int64 for any realistic share count.
	vested := g.TotalShares * elapsed / total
	if vested > g.TotalShares {
		vested = g.TotalShares
	}
	return vested
}

// totalPeriods rounds up so a trailing partial period still vests at the end date.
func totalPeriods(start, end civil.Date, period int) int64 {
	months := model.MonthsBetween(start, end)
	if months <= 0 {
		return 0
	}
	return int64((months + period - 1) / period)
}

// Validate checks the record for inconsistencies the calculation would
// otherwise paper over.
func Validate(g *model.Grant) error {
	if g == nil {
		return nil
	}
	if g.TotalShares < 0 {
		return model.NewInvalidInput("total_shares", "must be non-negative")
	}
	if g.CliffMonths < 0 {
		return model.NewInvalidInput("cliff_months", "must be non-negative")
	}
	if g.VestingMonths < 0 {
		return model.NewInvalidInput("vesting_months", "must be non-negative")
	}
	if model.IsZeroDate(g.VestingStartDate) {
		if _, ok := g.VestedShares.Override(); !ok {
			return model.NewInvalidInput("vesting_start_date", "required")
		}
	}
	if g.EndDate().Before(g.VestingStartDate) {
		return model.NewInvalidInput("vesting_end_date", "before vesting_start_date")
	}
	if g.CliffDate().After(g.EndDate()) {
		return model.NewInvalidInput("cliff_months", "cliff ends after vesting_end_date")
	}
	return CheckRange(g)
}

// CheckRange reports an overridden vested count outside [0, TotalShares].
// Callers that only need the share count run this instead of Validate.
func CheckRange(g *model.Grant) error {
	if g == nil {
		return nil
	}
	if v, ok := g.VestedShares.Override(); ok && (v < 0 || v > g.TotalShares) {
		return &model.OutOfRangeError{Field: "vested_shares", Value: v, Min: 0, Max: g.TotalShares}
	}
	return nil
}
