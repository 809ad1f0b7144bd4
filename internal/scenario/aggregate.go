// Package scenario rolls per-grant tax results up into one summary per exit
// scenario so scenarios can be compared side by side.
package scenario

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"vestquest-engine/internal/model"
	"vestquest-engine/internal/tax"
	"vestquest-engine/internal/taxtable"
	"vestquest-engine/internal/vesting"
)

type Options struct {
	Filter   Filter
	Settings model.TaxSettings
	// AsOf stands in for a scenario's sale date when it has none.
	AsOf       civil.Date
	Calculator *tax.Calculator
}

// AggregateScenarios produces one summary per scenario, in input order. A
// scenario without grant references covers every grant that passes the
// filter. References to grants that do not exist are reported in Unresolved;
// references the filter excluded are dropped silently.
func AggregateScenarios(scenarios []model.Scenario, grants []model.Grant, opts Options) ([]model.ScenarioSummary, error) {
	calc := opts.Calculator
	if calc == nil {
		calc = tax.New(nil, nil)
	}

	known := make(map[string]bool, len(grants))
	pool := make([]*model.Grant, 0, len(grants))
	for i := range grants {
		known[grants[i].ID] = true
		if opts.Filter.Match(&grants[i]) {
			pool = append(pool, &grants[i])
		}
	}

	summaries := make([]model.ScenarioSummary, 0, len(scenarios))
	for _, s := range scenarios {
		selected, unresolved := resolveGrants(s, pool, known)
		summary, err := summarize(calc, s, selected, opts)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		summary.Unresolved = unresolved
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func resolveGrants(s model.Scenario, pool []*model.Grant, known map[string]bool) ([]*model.Grant, []string) {
	if len(s.GrantIDs) == 0 {
		return pool, nil
	}

	byID := make(map[string]*model.Grant, len(pool))
	for _, g := range pool {
		byID[g.ID] = g
	}

	var selected []*model.Grant
	var unresolved []string
	seen := make(map[string]bool, len(s.GrantIDs))
	for _, id := range s.GrantIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if g, ok := byID[id]; ok {
			selected = append(selected, g)
		} else if !known[id] {
			unresolved = append(unresolved, id)
		}
	}
	return selected, unresolved
}

func summarize(calc *tax.Calculator, s model.Scenario, grants []*model.Grant, opts Options) (model.ScenarioSummary, error) {
	summary := model.ScenarioSummary{
		ScenarioName:  s.Name,
		GrossProceeds: decimal.Zero,
		ExerciseCost:  decimal.Zero,
		TaxLiability:  decimal.Zero,
		NetProceeds:   decimal.Zero,
	}

	saleDate := s.SaleDate
	if model.IsZeroDate(saleDate) {
		saleDate = opts.AsOf
	}
	exerciseDate := s.ExerciseDate
	if model.IsZeroDate(exerciseDate) {
		exerciseDate = saleDate
	}

	for _, g := range grants {
		if err := vesting.CheckRange(g); err != nil {
			return model.ScenarioSummary{}, fmt.Errorf("grant %s: %w", g.ID, err)
		}
		exit, err := ExitPrice(s, g, calc.Table())
		if err != nil {
			return model.ScenarioSummary{}, err
		}

		n := vesting.ComputeVestedShares(g, saleDate)
		d := tax.Disposition{
			ExitPrice:    decimal.NewNullDecimal(exit),
			Shares:       &n,
			ExerciseDate: exerciseDate,
			SaleDate:     saleDate,
		}
		// An earlier exercise happens at today's valuation, not the exit price.
		if exerciseDate.Before(saleDate) && g.FairMarketValue.IsPositive() {
			d.FMVAtExercise = decimal.NewNullDecimal(g.FairMarketValue)
		}

		res, err := calc.ComputeTax(g, d, opts.Settings)
		if err != nil {
			return model.ScenarioSummary{}, fmt.Errorf("grant %s: %w", g.ID, err)
		}

		summary.GrossProceeds = summary.GrossProceeds.Add(res.GrossProceeds)
		summary.ExerciseCost = summary.ExerciseCost.Add(res.ExerciseCost)
		summary.TaxLiability = summary.TaxLiability.Add(res.TotalTax)
		summary.GrantCount++
	}

	summary.NetProceeds = summary.GrossProceeds.Sub(summary.ExerciseCost).Sub(summary.TaxLiability)
	return summary, nil
}

// ExitPrice resolves the per-share exit price of g under s: an explicit
// price wins, then an explicit multiplier, then a named preset, each
// multiplier applied to the grant's fair market value.
func ExitPrice(s model.Scenario, g *model.Grant, table *taxtable.Table) (decimal.Decimal, error) {
	if s.ExitPrice.Valid {
		if s.ExitPrice.Decimal.IsNegative() {
			return decimal.Zero, model.NewInvalidInput("exit_price", "must be non-negative")
		}
		return s.ExitPrice.Decimal, nil
	}

	var multiplier decimal.Decimal
	switch {
	case s.Multiplier.Valid:
		multiplier = s.Multiplier.Decimal
	case s.Preset != "":
		m, ok := table.Multiplier(s.Preset)
		if !ok {
			return decimal.Zero, model.NewInvalidInput("preset", fmt.Sprintf("unknown preset %q", s.Preset))
		}
		multiplier = m
	default:
		return decimal.Zero, model.NewInvalidInput("exit_price", "required")
	}

	if multiplier.IsNegative() {
		return decimal.Zero, model.NewInvalidInput("multiplier", "must be non-negative")
	}
	if !g.FairMarketValue.IsPositive() {
		return decimal.Zero, model.NewInvalidInput("fair_market_value", "required to apply a multiplier")
	}
	return g.FairMarketValue.Mul(multiplier), nil
}
