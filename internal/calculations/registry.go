package calculations

import "vestquest-engine/internal/tax"

const (
	NameVestedShares       = "vested_shares"
	NameVestingSchedule    = "vesting_schedule"
	NameExerciseCost       = "exercise_cost"
	NameTax                = "tax"
	NameAggregateScenarios = "aggregate_scenarios"
)

type Registry struct {
	handlers map[string]CalculationHandler
}

// NewRegistry wires every calculation type. calc carries the rate table and
// AMT strategy shared by the tax and scenario calculations.
func NewRegistry(calc *tax.Calculator) *Registry {
	if calc == nil {
		calc = tax.New(nil, nil)
	}
	return &Registry{handlers: map[string]CalculationHandler{
		NameVestedShares:       &VestedSharesHandler{},
		NameVestingSchedule:    &VestingScheduleHandler{},
		NameExerciseCost:       &ExerciseCostHandler{},
		NameTax:                &TaxHandler{calc: calc},
		NameAggregateScenarios: &AggregateScenariosHandler{calc: calc},
	}}
}

func (r *Registry) Get(name string) (CalculationHandler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}
