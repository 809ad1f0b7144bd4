package model

import (
	"strconv"

	"cloud.google.com/go/civil"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type GrantType string

const (
	GrantISO GrantType = "ISO"
	GrantNSO GrantType = "NSO"
	GrantRSU GrantType = "RSU"
)

func (t GrantType) Valid() bool {
	switch t {
	case GrantISO, GrantNSO, GrantRSU:
		return true
	}
	return false
}

type VestingFrequency string

const (
	FrequencyMonthly   VestingFrequency = "monthly"
	FrequencyQuarterly VestingFrequency = "quarterly"
	FrequencyYearly    VestingFrequency = "yearly"
)

// PeriodMonths is the length of one vesting period. Unknown values vest monthly.
func (f VestingFrequency) PeriodMonths() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	}
	return 1
}

// VestingSource says where a grant's vested share count comes from: computed
// from the schedule, or overridden by a manually corrected record.
type VestingSource struct {
	overridden bool
	value      int64
}

func Computed() VestingSource {
	return VestingSource{}
}

func Overridden(shares int64) VestingSource {
	return VestingSource{overridden: true, value: shares}
}

// Override returns the corrected value and true when the source is Overridden.
func (s VestingSource) Override() (int64, bool) {
	return s.value, s.overridden
}

func (s VestingSource) MarshalJSON() ([]byte, error) {
	if !s.overridden {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(s.value, 10)), nil
}

func (s *VestingSource) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Computed()
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Overridden(v)
	return nil
}

// Grant is one equity award.
type Grant struct {
	ID               string           `json:"id"`
	Company          string           `json:"company,omitempty"`
	GrantType        GrantType        `json:"grant_type"`
	TotalShares      int64            `json:"total_shares"`
	StrikePrice      decimal.Decimal  `json:"strike_price"`
	FairMarketValue  decimal.Decimal  `json:"fair_market_value"`
	GrantDate        civil.Date       `json:"grant_date"`
	VestingStartDate civil.Date       `json:"vesting_start_date"`
	VestingEndDate   civil.Date       `json:"vesting_end_date"`
	VestingMonths    int              `json:"vesting_months,omitempty"`
	CliffMonths      int              `json:"cliff_months"`
	VestingFrequency VestingFrequency `json:"vesting_frequency"`
	VestedShares     VestingSource    `json:"vested_shares"`
}

// EndDate resolves the end of vesting from the explicit end date, falling
// back to start + VestingMonths.
func (g *Grant) EndDate() civil.Date {
	if !IsZeroDate(g.VestingEndDate) {
		return g.VestingEndDate
	}
	return AddMonths(g.VestingStartDate, g.VestingMonths)
}

// CliffDate is the first date on which any shares can be vested.
func (g *Grant) CliffDate() civil.Date {
	return AddMonths(g.VestingStartDate, g.CliffMonths)
}

// EffectiveGrantDate is the grant date, or the vesting start when it is unset.
func (g *Grant) EffectiveGrantDate() civil.Date {
	if IsZeroDate(g.GrantDate) {
		return g.VestingStartDate
	}
	return g.GrantDate
}
