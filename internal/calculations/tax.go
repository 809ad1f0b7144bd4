package calculations

import (
	"vestquest-engine/internal/model"
	"vestquest-engine/internal/tax"
)

type taxProps struct {
	GrantID string `json:"grant_id"`
	tax.Disposition
}

type TaxHandler struct {
	calc *tax.Calculator
}

func (h *TaxHandler) Validate(p *model.Portfolio, c *model.Calculation) []model.CalculationMessage {
	var props taxProps
	if err := decodeProperties(c, &props); err != nil {
		return malformed(err)
	}
	if _, ok := p.Grant(props.GrantID); !ok {
		return grantNotFound(props.GrantID)
	}
	return nil
}

func (h *TaxHandler) Apply(p *model.Portfolio, c *model.Calculation) (any, []model.CalculationMessage) {
	var props taxProps
	decodeProperties(c, &props)

	g, _ := p.Grant(props.GrantID)
	res, err := h.calc.ComputeTax(g, props.Disposition, p.Settings)
	if err != nil {
		return nil, []model.CalculationMessage{errorMessage(err)}
	}
	return res, nil
}
