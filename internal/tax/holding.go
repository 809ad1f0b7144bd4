package tax

import (
	"cloud.google.com/go/civil"

	"vestquest-engine/internal/model"
)

// HoldingPeriod classifies a sale once so the ordinary-income and
// capital-gains legs always agree on which rates apply.
type HoldingPeriod int

const (
	// ShortTerm: sold within a year of exercise (or vest).
	ShortTerm HoldingPeriod = iota
	// LongTermQualifying: held a year past exercise and, for ISOs, two years
	// past grant. The whole gain gets long-term treatment.
	LongTermQualifying
	// LongTermDisqualifying: an ISO held a year past exercise but sold
	// within two years of grant.
	LongTermDisqualifying
)

func (h HoldingPeriod) String() string {
	switch h {
	case LongTermQualifying:
		return "LONG_TERM_QUALIFYING"
	case LongTermDisqualifying:
		return "LONG_TERM_DISQUALIFYING"
	}
	return "SHORT_TERM"
}

// LongTerm reports whether capital gains are taxed at the long-term rate.
func (h HoldingPeriod) LongTerm() bool {
	return h != ShortTerm
}

// Classify works out the holding period of a sale. A missing sale date means
// a same-day sale at exercise; a missing exercise date means the shares were
// exercised on the sale date.
func Classify(t model.GrantType, grantDate, exerciseDate, saleDate civil.Date) HoldingPeriod {
	if model.IsZeroDate(saleDate) {
		saleDate = exerciseDate
	}
	if model.IsZeroDate(exerciseDate) {
		exerciseDate = saleDate
	}
	if model.IsZeroDate(saleDate) {
		return ShortTerm
	}

	heldYear := !saleDate.Before(model.AddMonths(exerciseDate, 12))
	if !heldYear {
		return ShortTerm
	}
	if t != model.GrantISO {
		return LongTermQualifying
	}
	if model.IsZeroDate(grantDate) || !saleDate.Before(model.AddMonths(grantDate, 24)) {
		return LongTermQualifying
	}
	return LongTermDisqualifying
}
