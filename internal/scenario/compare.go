package scenario

import (
	"github.com/shopspring/decimal"

	"vestquest-engine/internal/model"
)

type Comparison struct {
	Best   string          `json:"best_scenario"`
	Worst  string          `json:"worst_scenario"`
	Spread decimal.Decimal `json:"net_proceeds_spread"`
}

// Compare picks the scenarios with the highest and lowest net proceeds.
// Ties go to the earlier scenario.
func Compare(summaries []model.ScenarioSummary) (Comparison, bool) {
	if len(summaries) == 0 {
		return Comparison{}, false
	}

	best, worst := summaries[0], summaries[0]
	for _, s := range summaries[1:] {
		if s.NetProceeds.GreaterThan(best.NetProceeds) {
			best = s
		}
		if s.NetProceeds.LessThan(worst.NetProceeds) {
			worst = s
		}
	}
	return Comparison{
		Best:   best.ScenarioName,
		Worst:  worst.ScenarioName,
		Spread: best.NetProceeds.Sub(worst.NetProceeds),
	}, true
}
