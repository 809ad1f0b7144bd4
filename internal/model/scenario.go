package model

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type TaxMode string

const (
	ModeSimplified    TaxMode = "simplified"
	ModeComprehensive TaxMode = "comprehensive"
)

// TaxSettings is read-only for the duration of a calculation. A zero federal
// rate and a null state rate are filled in from the tax table.
type TaxSettings struct {
	FederalLongTermRate  decimal.Decimal     `json:"federal_long_term_rate"`
	FederalShortTermRate decimal.Decimal     `json:"federal_short_term_rate"`
	StateRate            decimal.NullDecimal `json:"state_rate"`
	State                string              `json:"state,omitempty"`
	FilingStatus         string              `json:"filing_status,omitempty"`
	Mode                 TaxMode             `json:"mode,omitempty"`
}

// Scenario is a hypothetical exit. The exit price is either given directly
// or derived from a multiplier (explicit or a named preset) applied to each
// grant's fair market value.
type Scenario struct {
	Name         string              `json:"scenario_name"`
	ExitPrice    decimal.NullDecimal `json:"exit_price"`
	Multiplier   decimal.NullDecimal `json:"multiplier"`
	Preset       string              `json:"preset,omitempty"`
	GrantIDs     []string            `json:"grant_ids,omitempty"`
	ExerciseDate civil.Date          `json:"exercise_date"`
	SaleDate     civil.Date          `json:"sale_date"`
}

type ScenarioSummary struct {
	ScenarioName  string          `json:"scenario_name"`
	GrossProceeds decimal.Decimal `json:"gross_proceeds"`
	ExerciseCost  decimal.Decimal `json:"exercise_cost"`
	TaxLiability  decimal.Decimal `json:"tax_liability"`
	NetProceeds   decimal.Decimal `json:"net_proceeds"`
	GrantCount    int             `json:"grant_count"`
	Unresolved    []string        `json:"unresolved_grant_ids,omitempty"`
}

type TaxResult struct {
	Holding        string          `json:"holding_period"`
	OrdinaryIncome decimal.Decimal `json:"ordinary_income"`
	CapitalGains   decimal.Decimal `json:"capital_gains"`
	AMT            decimal.Decimal `json:"amt"`
	TotalTax       decimal.Decimal `json:"total_tax"`
	GrossProceeds  decimal.Decimal `json:"gross_proceeds"`
	ExerciseCost   decimal.Decimal `json:"exercise_cost"`
	NetProceeds    decimal.Decimal `json:"net_proceeds"`
}

type VestingEvent struct {
	Date       civil.Date `json:"date"`
	Shares     int64      `json:"shares"`
	Cumulative int64      `json:"cumulative"`
}
