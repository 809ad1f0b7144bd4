package vesting

import (
	"cloud.google.com/go/civil"

	"vestquest-engine/internal/model"
)

// Schedule lists the dates on which shares vest, up to and including through
// (the whole schedule when through is zero). Shares held back by the cliff
// appear as a single event on the cliff date, or on the boundary it falls on. Overrides are
// ignored: the schedule describes the plan, not the corrected record.
func Schedule(g *model.Grant, through civil.Date) []model.VestingEvent {
	if g == nil || g.TotalShares <= 0 {
		return nil
	}

	plan := *g
	plan.VestedShares = model.Computed()

	start := plan.VestingStartDate
	end := plan.EndDate()
	period := plan.VestingFrequency.PeriodMonths()
	total := totalPeriods(start, end, period)

	var events []model.VestingEvent
	var prev int64

	emit := func(date civil.Date) {
		cum := ComputeVestedShares(&plan, date)
		if cum > prev {
			events = append(events, model.VestingEvent{Date: date, Shares: cum - prev, Cumulative: cum})
			prev = cum
		}
	}

	if total == 0 {
		if model.IsZeroDate(through) || !through.Before(end) {
			emit(end)
		}
		return events
	}

	// A cliff between two boundaries releases the periods it held back on the
	// cliff date itself.
	cliff := plan.CliffDate()
	cliffPending := plan.CliffMonths > 0

	for k := int64(1); k <= total; k++ {
		date := model.AddMonths(start, int(k)*period)
		if k == total || date.After(end) {
			date = end
		}
		if cliffPending && cliff.Before(date) {
			cliffPending = false
			if !model.IsZeroDate(through) && cliff.After(through) {
				break
			}
			emit(cliff)
		}
		if !model.IsZeroDate(through) && date.After(through) {
			break
		}
		emit(date)
	}
	return events
}
