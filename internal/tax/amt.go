package tax

import (
	"github.com/shopspring/decimal"

	"vestquest-engine/internal/model"
)

// AMTStrategy adds alternative minimum tax on top of the regular liability.
// Comprehensive mode runs whatever strategy the Calculator was built with.
type AMTStrategy interface {
	AMT(in AMTInput) decimal.Decimal
}

type AMTInput struct {
	GrantType model.GrantType
	Holding   HoldingPeriod
	// PreferenceItem is the ISO spread at exercise that regular tax did not
	// treat as ordinary income.
	PreferenceItem decimal.Decimal
	RegularTax     decimal.Decimal
}

type NoAMT struct{}

func (NoAMT) AMT(AMTInput) decimal.Decimal {
	return decimal.Zero
}

// FlatRateAMT taxes the preference item above the exemption at a single rate
// and charges whatever exceeds the regular tax already owed.
type FlatRateAMT struct {
	Rate      decimal.Decimal
	Exemption decimal.Decimal
}

func (f FlatRateAMT) AMT(in AMTInput) decimal.Decimal {
	base := in.PreferenceItem.Sub(f.Exemption)
	if !base.IsPositive() {
		return decimal.Zero
	}
	amt := base.Mul(f.Rate).Sub(in.RegularTax)
	if !amt.IsPositive() {
		return decimal.Zero
	}
	return amt
}
