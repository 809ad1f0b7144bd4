package vesting

import (
	"testing"

	"vestquest-engine/internal/model"
)

func TestScheduleEndsFullyVested(t *testing.T) {
	g := fourYearGrant(1000, 12, model.FrequencyMonthly)

	events := Schedule(g, date(0, 0, 0))
	if len(events) != 37 {
		t.Fatalf("expected 37 events (cliff + 36 months), got %d", len(events))
	}

	first := events[0]
	if first.Date != date(2021, 1, 1) || first.Shares != 250 {
		t.Fatalf("expected cliff lump of 250 on 2021-01-01, got %+v", first)
	}

	last := events[len(events)-1]
	if last.Cumulative != g.TotalShares {
		t.Fatalf("expected final cumulative %d, got %d", g.TotalShares, last.Cumulative)
	}
	if last.Date != g.EndDate() {
		t.Fatalf("expected last event on %s, got %s", g.EndDate(), last.Date)
	}

	var sum int64
	for _, e := range events {
		sum += e.Shares
	}
	if sum != g.TotalShares {
		t.Fatalf("expected events to sum to %d, got %d", g.TotalShares, sum)
	}
}

func TestScheduleThrough(t *testing.T) {
	g := fourYearGrant(1200, 0, model.FrequencyQuarterly)

	events := Schedule(g, date(2021, 1, 1))
	if len(events) != 4 {
		t.Fatalf("expected 4 quarterly events in the first year, got %d", len(events))
	}
	if events[3].Cumulative != 300 {
		t.Fatalf("expected 300 cumulative after a year, got %d", events[3].Cumulative)
	}
}

func TestScheduleIgnoresOverride(t *testing.T) {
	g := fourYearGrant(480, 0, model.FrequencyYearly)
	g.VestedShares = model.Overridden(7)

	events := Schedule(g, date(0, 0, 0))
	if len(events) != 4 {
		t.Fatalf("expected 4 yearly events, got %d", len(events))
	}
	if events[0].Shares != 120 {
		t.Fatalf("expected 120 per year, got %d", events[0].Shares)
	}
}

func TestScheduleEmpty(t *testing.T) {
	if events := Schedule(nil, date(0, 0, 0)); events != nil {
		t.Fatalf("expected no events for nil grant, got %v", events)
	}
}

func TestScheduleCliffBetweenBoundaries(t *testing.T) {
	g := fourYearGrant(1200, 7, model.FrequencyQuarterly)

	events := Schedule(g, date(0, 0, 0))
	first := events[0]
	if first.Date != date(2020, 8, 1) || first.Cumulative != 150 {
		t.Fatalf("expected 150 vested on the 2020-08-01 cliff, got %+v", first)
	}
	second := events[1]
	if second.Date != date(2020, 10, 1) || second.Shares != 75 || second.Cumulative != 225 {
		t.Fatalf("expected 75 more on 2020-10-01, got %+v", second)
	}
	if last := events[len(events)-1]; last.Cumulative != 1200 {
		t.Fatalf("expected final cumulative 1200, got %d", last.Cumulative)
	}

	for _, e := range events {
		if got := ComputeVestedShares(g, e.Date); got != e.Cumulative {
			t.Fatalf("on %s expected cumulative %d to match vested shares %d", e.Date, e.Cumulative, got)
		}
	}
}

func TestScheduleThroughBeforeOffBoundaryCliff(t *testing.T) {
	g := fourYearGrant(1200, 7, model.FrequencyQuarterly)

	if events := Schedule(g, date(2020, 7, 31)); len(events) != 0 {
		t.Fatalf("expected no events before the cliff, got %+v", events)
	}
	events := Schedule(g, date(2020, 8, 1))
	if len(events) != 1 || events[0].Cumulative != 150 {
		t.Fatalf("expected only the cliff event, got %+v", events)
	}
}
