// Package taxtable holds the flat rate table and the named scenario
// multipliers. Defaults are embedded; a YAML file can replace them.
package taxtable

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"vestquest-engine/internal/model"
)

//go:embed default.yaml
var defaultYAML []byte

type rawTable struct {
	Federal struct {
		LongTermRate  float64 `yaml:"long_term_rate"`
		ShortTermRate float64 `yaml:"short_term_rate"`
	} `yaml:"federal"`
	States      map[string]float64 `yaml:"states"`
	Multipliers map[string]float64 `yaml:"multipliers"`
	AMT         struct {
		Rate      float64 `yaml:"rate"`
		Exemption float64 `yaml:"exemption"`
	} `yaml:"amt"`
}

type Table struct {
	FederalLongTermRate  decimal.Decimal
	FederalShortTermRate decimal.Decimal
	StateRates           map[string]decimal.Decimal
	Multipliers          map[string]decimal.Decimal
	AMTRate              decimal.Decimal
	AMTExemption         decimal.Decimal
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic("taxtable: embedded default: " + err.Error())
	}
	return t
})

// Default returns the embedded table. Callers must not modify it.
func Default() *Table {
	return defaultTable()
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tax table: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var raw rawTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tax table: %w", err)
	}

	if raw.Federal.LongTermRate < 0 || raw.Federal.ShortTermRate < 0 {
		return nil, fmt.Errorf("parse tax table: federal rates must be non-negative")
	}

	t := &Table{
		FederalLongTermRate:  decimal.NewFromFloat(raw.Federal.LongTermRate),
		FederalShortTermRate: decimal.NewFromFloat(raw.Federal.ShortTermRate),
		StateRates:           make(map[string]decimal.Decimal, len(raw.States)),
		Multipliers:          make(map[string]decimal.Decimal, len(raw.Multipliers)),
		AMTRate:              decimal.NewFromFloat(raw.AMT.Rate),
		AMTExemption:         decimal.NewFromFloat(raw.AMT.Exemption),
	}
	for state, rate := range raw.States {
		if rate < 0 {
			return nil, fmt.Errorf("parse tax table: negative rate for state %s", state)
		}
		t.StateRates[strings.ToUpper(state)] = decimal.NewFromFloat(rate)
	}
	for name, m := range raw.Multipliers {
		if m < 0 {
			return nil, fmt.Errorf("parse tax table: negative multiplier %s", name)
		}
		t.Multipliers[strings.ToLower(name)] = decimal.NewFromFloat(m)
	}
	return t, nil
}

func (t *Table) StateRate(state string) (decimal.Decimal, bool) {
	r, ok := t.StateRates[strings.ToUpper(strings.TrimSpace(state))]
	return r, ok
}

func (t *Table) Multiplier(name string) (decimal.Decimal, bool) {
	m, ok := t.Multipliers[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// Resolve fills the blanks in s from the table: zero federal rates, a null
// state rate for a known state, and an empty mode.
func (t *Table) Resolve(s model.TaxSettings) model.TaxSettings {
	if s.FederalLongTermRate.IsZero() {
		s.FederalLongTermRate = t.FederalLongTermRate
	}
	if s.FederalShortTermRate.IsZero() {
		s.FederalShortTermRate = t.FederalShortTermRate
	}
	if !s.StateRate.Valid {
		rate := decimal.Zero
		if s.State != "" {
			if r, ok := t.StateRate(s.State); ok {
				rate = r
			}
		}
		s.StateRate = decimal.NullDecimal{Decimal: rate, Valid: true}
	}
	if s.Mode == "" {
		s.Mode = model.ModeSimplified
	}
	return s
}
