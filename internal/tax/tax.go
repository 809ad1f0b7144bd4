// Package tax computes the tax owed on selling shares from a grant under
// simplified flat-rate rules, with AMT as an optional strategy.
package tax

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"vestquest-engine/internal/exercise"
	"vestquest-engine/internal/model"
	"vestquest-engine/internal/taxtable"
)

// Disposition describes one sale of shares from a grant.
type Disposition struct {
	// ExercisePrice is the price paid per share. Defaults to the grant's strike.
	ExercisePrice decimal.NullDecimal `json:"exercise_price"`
	// FMVAtExercise is the fair market value at exercise (at vest for RSUs).
	// Defaults to the exit price, i.e. exercise and sale on the same day.
	FMVAtExercise decimal.NullDecimal `json:"fmv_at_exercise"`
	ExitPrice     decimal.NullDecimal `json:"exit_price"`
	Shares        *int64              `json:"shares"`
	ExerciseDate  civil.Date          `json:"exercise_date"`
	SaleDate      civil.Date          `json:"sale_date"`
}

type Calculator struct {
	table *taxtable.Table
	amt   AMTStrategy
}

// New builds a Calculator. A nil table means the embedded defaults; a nil
// strategy makes comprehensive mode unavailable.
func New(table *taxtable.Table, amt AMTStrategy) *Calculator {
	if table == nil {
		table = taxtable.Default()
	}
	return &Calculator{table: table, amt: amt}
}

func (c *Calculator) Table() *taxtable.Table {
	return c.table
}

// ComputeTax runs the default calculator: embedded rate table, no AMT strategy.
func ComputeTax(g *model.Grant, d Disposition, s model.TaxSettings) (model.TaxResult, error) {
	return New(nil, nil).ComputeTax(g, d, s)
}

func (c *Calculator) ComputeTax(g *model.Grant, d Disposition, s model.TaxSettings) (model.TaxResult, error) {
	if g == nil {
		return model.TaxResult{}, model.NewInvalidInput("grant", "required")
	}
	if !g.GrantType.Valid() {
		return model.TaxResult{}, model.NewInvalidInput("grant_type", "must be ISO, NSO or RSU")
	}
	if !d.ExitPrice.Valid {
		return model.TaxResult{}, model.NewInvalidInput("exit_price", "required")
	}
	if d.ExitPrice.Decimal.IsNegative() {
		return model.TaxResult{}, model.NewInvalidInput("exit_price", "must be non-negative")
	}
	if d.Shares == nil {
		return model.TaxResult{}, model.NewInvalidInput("shares", "required")
	}
	if *d.Shares < 0 {
		return model.TaxResult{}, model.NewInvalidInput("shares", "must be non-negative")
	}

	s = c.table.Resolve(s)
	if s.Mode == model.ModeComprehensive && c.amt == nil {
		return model.TaxResult{}, model.NewInvalidInput("mode", "no AMT strategy configured")
	}

	holding := Classify(g.GrantType, g.EffectiveGrantDate(), d.ExerciseDate, d.SaleDate)
	result := model.TaxResult{
		Holding:        holding.String(),
		OrdinaryIncome: decimal.Zero,
		CapitalGains:   decimal.Zero,
		AMT:            decimal.Zero,
		TotalTax:       decimal.Zero,
		GrossProceeds:  decimal.Zero,
		ExerciseCost:   decimal.Zero,
		NetProceeds:    decimal.Zero,
	}
	if *d.Shares == 0 {
		return result, nil
	}

	n := decimal.NewFromInt(*d.Shares)
	exit := d.ExitPrice.Decimal
	strike := g.StrikePrice
	if d.ExercisePrice.Valid {
		strike = d.ExercisePrice.Decimal
	}
	fmv := exit
	if d.FMVAtExercise.Valid {
		fmv = d.FMVAtExercise.Decimal
	}

	gain := legs(g.GrantType, holding, strike, fmv, exit)

	result.GrossProceeds = exit.Mul(n)
	if g.GrantType != model.GrantRSU {
		result.ExerciseCost = exercise.ExerciseCost(*d.Shares, strike)
	}
	result.OrdinaryIncome = gain.ordinary.Mul(n)
	result.CapitalGains = gain.capital.Mul(n)

	state := s.StateRate.Decimal
	ordinaryRate := s.FederalShortTermRate.Add(state)
	capitalRate := s.FederalShortTermRate.Add(state)
	if holding.LongTerm() {
		capitalRate = s.FederalLongTermRate.Add(state)
	}

	regular := positive(result.OrdinaryIncome).Mul(ordinaryRate).
		Add(positive(result.CapitalGains).Mul(capitalRate))

	if s.Mode == model.ModeComprehensive {
		result.AMT = c.amt.AMT(AMTInput{
			GrantType:      g.GrantType,
			Holding:        holding,
			PreferenceItem: gain.preference.Mul(n),
			RegularTax:     regular,
		})
	}

	result.TotalTax = regular.Add(result.AMT)
	result.NetProceeds = result.GrossProceeds.Sub(result.ExerciseCost).Sub(result.TotalTax)
	return result, nil
}

// perShare splits the gain on one share into its tax legs.
type perShare struct {
	ordinary   decimal.Decimal
	capital    decimal.Decimal
	preference decimal.Decimal
}

func legs(t model.GrantType, h HoldingPeriod, strike, fmv, exit decimal.Decimal) perShare {
	switch t {
	case model.GrantRSU:
		return perShare{ordinary: fmv, capital: exit.Sub(fmv), preference: decimal.Zero}

	case model.GrantNSO:
		bargain := positive(fmv.Sub(strike))
		basis := strike.Add(bargain)
		return perShare{ordinary: bargain, capital: exit.Sub(basis), preference: decimal.Zero}
	}

	if h == LongTermQualifying {
		return perShare{
			ordinary:   decimal.Zero,
			capital:    exit.Sub(strike),
			preference: positive(fmv.Sub(strike)),
		}
	}
	// Disqualifying: ordinary income is capped at the actual gain on sale.
	bargain := positive(decimal.Min(fmv, exit).Sub(strike))
	return perShare{
		ordinary:   bargain,
		capital:    exit.Sub(strike).Sub(bargain),
		preference: decimal.Zero,
	}
}

func positive(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
