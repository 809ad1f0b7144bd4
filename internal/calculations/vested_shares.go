package calculations

import (
	"cloud.google.com/go/civil"

	"vestquest-engine/internal/model"
	"vestquest-engine/internal/vesting"
)

type vestedSharesProps struct {
	GrantID string     `json:"grant_id"`
	AsOf    civil.Date `json:"as_of"`
}

type vestedSharesResult struct {
	GrantID        string     `json:"grant_id"`
	AsOf           civil.Date `json:"as_of"`
	Source         string     `json:"source"`
	TotalShares    int64      `json:"total_shares"`
	VestedShares   int64      `json:"vested_shares"`
	UnvestedShares int64      `json:"unvested_shares"`
}

type VestedSharesHandler struct{}

func (h *VestedSharesHandler) Validate(p *model.Portfolio, c *model.Calculation) []model.CalculationMessage {
	var props vestedSharesProps
	if err := decodeProperties(c, &props); err != nil {
		return malformed(err)
	}

	g, ok := p.Grant(props.GrantID)
	if !ok {
		return grantNotFound(props.GrantID)
	}
	if err := vesting.Validate(g); err != nil {
		return []model.CalculationMessage{errorMessage(err)}
	}
	return nil
}

func (h *VestedSharesHandler) Apply(p *model.Portfolio, c *model.Calculation) (any, []model.CalculationMessage) {
	var props vestedSharesProps
	decodeProperties(c, &props)

	asOf := props.AsOf
	if model.IsZeroDate(asOf) {
		asOf = p.AsOf
	}
	g, _ := p.Grant(props.GrantID)

	vested := vesting.ComputeVestedShares(g, asOf)
	source := "computed"
	if _, ok := g.VestedShares.Override(); ok {
		source = "overridden"
	}

	return vestedSharesResult{
		GrantID:        g.ID,
		AsOf:           asOf,
		Source:         source,
		TotalShares:    g.TotalShares,
		VestedShares:   vested,
		UnvestedShares: g.TotalShares - vested,
	}, nil
}
