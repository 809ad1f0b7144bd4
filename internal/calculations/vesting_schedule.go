package calculations

import (
	"cloud.google.com/go/civil"

	"vestquest-engine/internal/model"
	"vestquest-engine/internal/vesting"
)

type vestingScheduleProps struct {
	GrantID string     `json:"grant_id"`
	Through civil.Date `json:"through"`
}

type vestingScheduleResult struct {
	GrantID string               `json:"grant_id"`
	Events  []model.VestingEvent `json:"events"`
}

type VestingScheduleHandler struct{}

func (h *VestingScheduleHandler) Validate(p *model.Portfolio, c *model.Calculation) []model.CalculationMessage {
	var props vestingScheduleProps
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

func (h *VestingScheduleHandler) Apply(p *model.Portfolio, c *model.Calculation) (any, []model.CalculationMessage) {
	var props vestingScheduleProps
	decodeProperties(c, &props)

	g, _ := p.Grant(props.GrantID)
	events := vesting.Schedule(g, props.Through)
	if events == nil {
		events = []model.VestingEvent{}
	}
	return vestingScheduleResult{GrantID: g.ID, Events: events}, nil
}
