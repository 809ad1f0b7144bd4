package calculations

import (
	"github.com/shopspring/decimal"

	"vestquest-engine/internal/exercise"
	"vestquest-engine/internal/model"
	"vestquest-engine/internal/vesting"
)

// Shares and price stay untyped: forms send whatever the user has typed so far.
type exerciseCostProps struct {
	GrantID     string `json:"grant_id,omitempty"`
	Shares      any    `json:"shares"`
	StrikePrice any    `json:"strike_price"`
}

type exerciseCostResult struct {
	Shares       int64           `json:"shares"`
	StrikePrice  decimal.Decimal `json:"strike_price"`
	ExerciseCost decimal.Decimal `json:"exercise_cost"`
}

type ExerciseCostHandler struct{}

func (h *ExerciseCostHandler) Validate(p *model.Portfolio, c *model.Calculation) []model.CalculationMessage {
	var props exerciseCostProps
	if err := decodeProperties(c, &props); err != nil {
		return malformed(err)
	}
	if props.GrantID == "" {
		return nil
	}
	g, ok := p.Grant(props.GrantID)
	if !ok {
		return grantNotFound(props.GrantID)
	}
	if props.Shares == nil {
		if err := vesting.CheckRange(g); err != nil {
			return []model.CalculationMessage{errorMessage(err)}
		}
	}
	return nil
}

// Apply fills blanks from the referenced grant: the strike price, and the
// shares vested as of the portfolio date.
func (h *ExerciseCostHandler) Apply(p *model.Portfolio, c *model.Calculation) (any, []model.CalculationMessage) {
	var props exerciseCostProps
	decodeProperties(c, &props)

	shares := exercise.CoerceShares(props.Shares)
	price := exercise.CoercePrice(props.StrikePrice)

	if g, ok := p.Grant(props.GrantID); ok {
		if props.Shares == nil {
			shares = vesting.ComputeVestedShares(g, p.AsOf)
		}
		if props.StrikePrice == nil {
			price = g.StrikePrice
		}
	}

	return exerciseCostResult{
		Shares:       shares,
		StrikePrice:  price,
		ExerciseCost: exercise.ExerciseCost(shares, price),
	}, nil
}
