package taxtable

import (
	"testing"

	"github.com/shopspring/decimal"

	"vestquest-engine/internal/model"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()

	if !tbl.FederalLongTermRate.Equal(decimal.RequireFromString("0.15")) {
		t.Fatalf("expected long-term rate 0.15, got %s", tbl.FederalLongTermRate)
	}

	rate, ok := tbl.StateRate("ca")
	if !ok {
		t.Fatal("expected CA in the default table")
	}
	if !rate.Equal(decimal.RequireFromString("0.133")) {
		t.Fatalf("expected CA rate 0.133, got %s", rate)
	}

	m, ok := tbl.Multiplier("Optimistic")
	if !ok || !m.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected optimistic multiplier 10, got %s (found=%v)", m, ok)
	}
}

func TestParseRejectsNegativeRates(t *testing.T) {
	_, err := Parse([]byte("federal:\n  long_term_rate: -0.1\n"))
	if err == nil {
		t.Fatal("expected error for negative federal rate")
	}

	_, err = Parse([]byte("states:\n  CA: -1\n"))
	if err == nil {
		t.Fatal("expected error for negative state rate")
	}
}

func TestResolveFillsBlanks(t *testing.T) {
	s := Default().Resolve(model.TaxSettings{State: "NY"})

	if !s.FederalShortTermRate.Equal(decimal.RequireFromString("0.24")) {
		t.Fatalf("expected short-term rate 0.24, got %s", s.FederalShortTermRate)
	}
	if !s.StateRate.Valid || !s.StateRate.Decimal.Equal(decimal.RequireFromString("0.109")) {
		t.Fatalf("expected NY rate 0.109, got %v", s.StateRate)
	}
	if s.Mode != model.ModeSimplified {
		t.Fatalf("expected simplified mode, got %s", s.Mode)
	}
}

func TestResolveKeepsExplicitValues(t *testing.T) {
	in := model.TaxSettings{
		FederalLongTermRate:  decimal.RequireFromString("0.2"),
		FederalShortTermRate: decimal.RequireFromString("0.37"),
		StateRate:            decimal.NewNullDecimal(decimal.Zero),
		State:                "CA",
		Mode:                 model.ModeComprehensive,
	}
	s := Default().Resolve(in)

	if !s.FederalLongTermRate.Equal(in.FederalLongTermRate) {
		t.Fatalf("expected explicit long-term rate kept, got %s", s.FederalLongTermRate)
	}
	if !s.StateRate.Decimal.IsZero() {
		t.Fatalf("expected explicit zero state rate kept, got %s", s.StateRate.Decimal)
	}
	if s.Mode != model.ModeComprehensive {
		t.Fatalf("expected comprehensive mode kept, got %s", s.Mode)
	}
}

func TestResolveFillsEachFederalRate(t *testing.T) {
	s := Default().Resolve(model.TaxSettings{FederalLongTermRate: decimal.RequireFromString("0.2")})
	if !s.FederalLongTermRate.Equal(decimal.RequireFromString("0.2")) {
		t.Fatalf("expected explicit long-term rate 0.2, got %s", s.FederalLongTermRate)
	}
	if !s.FederalShortTermRate.Equal(decimal.RequireFromString("0.24")) {
		t.Fatalf("expected table short-term rate 0.24, got %s", s.FederalShortTermRate)
	}

	s = Default().Resolve(model.TaxSettings{FederalShortTermRate: decimal.RequireFromString("0.37")})
	if !s.FederalLongTermRate.Equal(decimal.RequireFromString("0.15")) {
		t.Fatalf("expected table long-term rate 0.15, got %s", s.FederalLongTermRate)
	}
	if !s.FederalShortTermRate.Equal(decimal.RequireFromString("0.37")) {
		t.Fatalf("expected explicit short-term rate 0.37, got %s", s.FederalShortTermRate)
	}
}
