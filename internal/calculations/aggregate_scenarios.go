package calculations

import (
	"strings"

	"vestquest-engine/internal/model"
	"vestquest-engine/internal/scenario"
	"vestquest-engine/internal/tax"
)

type aggregateScenariosProps struct {
	ScenarioNames []string        `json:"scenario_names,omitempty"`
	Filter        scenario.Filter `json:"filter"`
}

type aggregateScenariosResult struct {
	Summaries  []model.ScenarioSummary `json:"summaries"`
	Comparison *scenario.Comparison    `json:"comparison,omitempty"`
}

type AggregateScenariosHandler struct {
	calc *tax.Calculator
}

func (h *AggregateScenariosHandler) Validate(p *model.Portfolio, c *model.Calculation) []model.CalculationMessage {
	var props aggregateScenariosProps
	if err := decodeProperties(c, &props); err != nil {
		return malformed(err)
	}

	var msgs []model.CalculationMessage
	seen := make(map[string]bool, len(p.Scenarios))
	for _, s := range p.Scenarios {
		if seen[s.Name] {
			msgs = append(msgs, warning(model.CodeDuplicateScenario,
				"Scenario %q appears more than once", s.Name))
		}
		seen[s.Name] = true
	}

	var missing []string
	for _, name := range props.ScenarioNames {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		msgs = append(msgs, critical(model.CodeInvalidInput,
			"Unknown scenarios: %s", strings.Join(missing, ", ")))
	}
	return msgs
}

func (h *AggregateScenariosHandler) Apply(p *model.Portfolio, c *model.Calculation) (any, []model.CalculationMessage) {
	var props aggregateScenariosProps
	decodeProperties(c, &props)

	selected := p.Scenarios
	if len(props.ScenarioNames) > 0 {
		wanted := make(map[string]bool, len(props.ScenarioNames))
		for _, name := range props.ScenarioNames {
			wanted[name] = true
		}
		selected = nil
		for _, s := range p.Scenarios {
			if wanted[s.Name] {
				selected = append(selected, s)
			}
		}
	}

	summaries, err := scenario.AggregateScenarios(selected, p.Grants, scenario.Options{
		Filter:     props.Filter,
		Settings:   p.Settings,
		AsOf:       p.AsOf,
		Calculator: h.calc,
	})
	if err != nil {
		return nil, []model.CalculationMessage{errorMessage(err)}
	}

	var msgs []model.CalculationMessage
	for _, s := range summaries {
		if len(s.Unresolved) > 0 {
			msgs = append(msgs, warning(model.CodeUnresolvedGrants,
				"Scenario %q references unknown grants: %s", s.ScenarioName, strings.Join(s.Unresolved, ", ")))
		}
	}

	result := aggregateScenariosResult{Summaries: summaries}
	if cmp, ok := scenario.Compare(summaries); ok {
		result.Comparison = &cmp
	}
	return result, msgs
}
