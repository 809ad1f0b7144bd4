package tax

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"vestquest-engine/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func shares(n int64) *int64 {
	return &n
}

func flatSettings() model.TaxSettings {
	return model.TaxSettings{
		FederalLongTermRate:  dec("0.15"),
		FederalShortTermRate: dec("0.24"),
		StateRate:            price("0.05"),
	}
}

func grant(t model.GrantType, strike string, granted civil.Date) *model.Grant {
	return &model.Grant{
		ID:               "g-1",
		GrantType:        t,
		TotalShares:      10000,
		StrikePrice:      dec(strike),
		GrantDate:        granted,
		VestingStartDate: granted,
		VestingMonths:    48,
	}
}

func expectAmount(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("expected %s %s, got %s", name, want, got)
	}
}

func TestComputeTaxNSOSameDay(t *testing.T) {
	g := grant(model.GrantNSO, "1", date(2020, 1, 1))
	d := Disposition{ExitPrice: price("10"), Shares: shares(100), ExerciseDate: date(2024, 1, 1), SaleDate: date(2024, 1, 1)}

	res, err := ComputeTax(g, d, flatSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectAmount(t, "ordinary income", res.OrdinaryIncome, "900")
	expectAmount(t, "capital gains", res.CapitalGains, "0")
	expectAmount(t, "gross proceeds", res.GrossProceeds, "1000")
	expectAmount(t, "exercise cost", res.ExerciseCost, "100")
	expectAmount(t, "total tax", res.TotalTax, "261")
	expectAmount(t, "net proceeds", res.NetProceeds, "639")
	if res.Holding != "SHORT_TERM" {
		t.Fatalf("expected SHORT_TERM, got %s", res.Holding)
	}
}

func TestComputeTaxNSOHeldLongTerm(t *testing.T) {
	g := grant(model.GrantNSO, "1", date(2020, 1, 1))
	d := Disposition{
		FMVAtExercise: price("4"),
		ExitPrice:     price("10"),
		Shares:        shares(100),
		ExerciseDate:  date(2021, 1, 1),
		SaleDate:      date(2022, 6, 1),
	}

	res, err := ComputeTax(g, d, flatSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectAmount(t, "ordinary income", res.OrdinaryIncome, "300")
	expectAmount(t, "capital gains", res.CapitalGains, "600")
	// 300 x 0.29 + 600 x 0.20
	expectAmount(t, "total tax", res.TotalTax, "207")
}

func TestComputeTaxISOQualifying(t *testing.T) {
	g := grant(model.GrantISO, "1", date(2020, 1, 1))
	d := Disposition{
		FMVAtExercise: price("4"),
		ExitPrice:     price("10"),
		Shares:        shares(100),
		ExerciseDate:  date(2021, 1, 1),
		SaleDate:      date(2022, 1, 1),
	}

	res, err := ComputeTax(g, d, flatSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Holding != "LONG_TERM_QUALIFYING" {
		t.Fatalf("expected LONG_TERM_QUALIFYING, got %s", res.Holding)
	}
	expectAmount(t, "ordinary income", res.OrdinaryIncome, "0")
	expectAmount(t, "capital gains", res.CapitalGains, "900")
	expectAmount(t, "total tax", res.TotalTax, "180")
	expectAmount(t, "net proceeds", res.NetProceeds, "720")
}

func TestComputeTaxISODisqualifyingShortTerm(t *testing.T) {
	g := grant(model.GrantISO, "1", date(2020, 1, 1))
	d := Disposition{
		FMVAtExercise: price("4"),
		ExitPrice:     price("10"),
		Shares:        shares(100),
		ExerciseDate:  date(2021, 1, 1),
		SaleDate:      date(2021, 6, 1),
	}

	res, err := ComputeTax(g, d, flatSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectAmount(t, "ordinary income", res.OrdinaryIncome, "300")
	expectAmount(t, "capital gains", res.CapitalGains, "600")
	// both legs at 0.29
	expectAmount(t, "total tax", res.TotalTax, "261")
}

func TestComputeTaxISODisqualifyingLongTerm(t *testing.T) {
	g := grant(model.GrantISO, "1", date(2021, 1, 1))
	d := Disposition{
		FMVAtExercise: price("4"),
		ExitPrice:     price("10"),
		Shares:        shares(100),
		ExerciseDate:  date(2021, 1, 1),
		SaleDate:      date(2022, 1, 1),
	}

	res, err := ComputeTax(g, d, flatSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Holding != "LONG_TERM_DISQUALIFYING" {
		t.Fatalf("expected LONG_TERM_DISQUALIFYING, got %s", res.Holding)
	}
	expectAmount(t, "total tax", res.TotalTax, "207")
}

func TestComputeTaxISODisqualifyingBelowFMV(t *testing.T) {
	g := grant(model.GrantISO, "1", date(2021, 1, 1))
	d := Disposition{
		FMVAtExercise: price("8"),
		ExitPrice:     price("5"),
		Shares:        shares(10),
		ExerciseDate:  date(2021, 2, 1),
		SaleDate:      date(2021, 3, 1),
	}

	res, err := ComputeTax(g, d, flatSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectAmount(t, "ordinary income", res.OrdinaryIncome, "40")
	expectAmount(t, "capital gains", res.CapitalGains, "0")
}

func TestComputeTaxRSU(t *testing.T) {
	g := grant(model.GrantRSU, "0", date(2020, 1, 1))
	d := Disposition{ExitPrice: price("10"), Shares: shares(100)}

	res, err := ComputeTax(g, d, flatSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectAmount(t, "ordinary income", res.OrdinaryIncome, "1000")
	expectAmount(t, "exercise cost", res.ExerciseCost, "0")
	expectAmount(t, "total tax", res.TotalTax, "290")
	expectAmount(t, "net proceeds", res.NetProceeds, "710")
}

func TestComputeTaxUnderwaterLossIsNotTaxed(t *testing.T) {
	g := grant(model.GrantNSO, "5", date(2020, 1, 1))
	d := Disposition{ExitPrice: price("2"), Shares: shares(100)}

	res, err := ComputeTax(g, d, flatSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectAmount(t, "capital gains", res.CapitalGains, "-300")
	expectAmount(t, "total tax", res.TotalTax, "0")
	expectAmount(t, "net proceeds", res.NetProceeds, "-300")
}

func TestComputeTaxMissingInputs(t *testing.T) {
	g := grant(model.GrantNSO, "1", date(2020, 1, 1))

	tests := []struct {
		name  string
		grant *model.Grant
		d     Disposition
		field string
	}{
		{"missing exit price", g, Disposition{Shares: shares(10)}, "exit_price"},
		{"missing shares", g, Disposition{ExitPrice: price("10")}, "shares"},
		{"negative shares", g, Disposition{ExitPrice: price("10"), Shares: shares(-1)}, "shares"},
		{"negative exit", g, Disposition{ExitPrice: price("-1"), Shares: shares(1)}, "exit_price"},
		{"nil grant", nil, Disposition{ExitPrice: price("10"), Shares: shares(1)}, "grant"},
		{"bad grant type", &model.Grant{GrantType: "ESPP"}, Disposition{ExitPrice: price("10"), Shares: shares(1)}, "grant_type"},
	}

	for _, tt := range tests {
		_, err := ComputeTax(tt.grant, tt.d, flatSettings())
		var inputErr *model.InvalidInputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("%s: expected InvalidInputError, got %v", tt.name, err)
		}
		if inputErr.Field != tt.field {
			t.Fatalf("%s: expected field %s, got %s", tt.name, tt.field, inputErr.Field)
		}
	}
}

func TestComputeTaxZeroShares(t *testing.T) {
	g := grant(model.GrantISO, "1", date(2020, 1, 1))

	res, err := ComputeTax(g, Disposition{ExitPrice: price("10"), Shares: shares(0)}, flatSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for name, v := range map[string]decimal.Decimal{
		"ordinary": res.OrdinaryIncome, "capital": res.CapitalGains, "tax": res.TotalTax,
		"gross": res.GrossProceeds, "cost": res.ExerciseCost, "net": res.NetProceeds,
	} {
		if !v.IsZero() {
			t.Fatalf("expected zero %s for zero shares, got %s", name, v)
		}
	}
}

func TestComputeTaxUsesTableDefaults(t *testing.T) {
	g := grant(model.GrantRSU, "0", date(2020, 1, 1))

	res, err := ComputeTax(g, Disposition{ExitPrice: price("10"), Shares: shares(100)}, model.TaxSettings{State: "CA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1000 x (0.24 + 0.133)
	expectAmount(t, "total tax", res.TotalTax, "373")
}

func TestComputeTaxPartialFederalRates(t *testing.T) {
	g := grant(model.GrantRSU, "0", date(2020, 1, 1))
	settings := model.TaxSettings{
		FederalLongTermRate: dec("0.2"),
		StateRate:           price("0"),
	}

	res, err := ComputeTax(g, Disposition{ExitPrice: price("10"), Shares: shares(100)}, settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1000 ordinary income at the table's 24% short-term rate.
	expectAmount(t, "total tax", res.TotalTax, "240")
}

func TestComputeTaxComprehensiveMode(t *testing.T) {
	g := grant(model.GrantISO, "1", date(2018, 1, 1))
	d := Disposition{
		FMVAtExercise: price("1001"),
		ExitPrice:     price("1001"),
		Shares:        shares(1000),
		ExerciseDate:  date(2020, 1, 1),
		SaleDate:      date(2021, 1, 1),
	}
	s := flatSettings()
	s.Mode = model.ModeComprehensive

	_, err := ComputeTax(g, d, s)
	var inputErr *model.InvalidInputError
	if !errors.As(err, &inputErr) || inputErr.Field != "mode" {
		t.Fatalf("expected InvalidInputError on mode without a strategy, got %v", err)
	}

	calc := New(nil, FlatRateAMT{Rate: dec("0.28"), Exemption: dec("100000")})
	res, err := calc.ComputeTax(g, d, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// regular: 1,000,000 x 0.20 = 200,000
	// amt: (1,000,000 - 100,000) x 0.28 - 200,000 = 52,000
	expectAmount(t, "regular + amt", res.TotalTax, "252000")
	expectAmount(t, "amt", res.AMT, "52000")

	calc = New(nil, NoAMT{})
	res, err = calc.ComputeTax(g, d, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectAmount(t, "amt", res.AMT, "0")
}

func TestComputeTaxNetProceedsIdentity(t *testing.T) {
	types := []model.GrantType{model.GrantISO, model.GrantNSO, model.GrantRSU}
	exits := []string{"0", "0.5", "3.21", "47.5"}
	fmvs := []string{"0.1", "2", "60"}

	for _, typ := range types {
		for _, exit := range exits {
			for _, fmv := range fmvs {
				g := grant(typ, "1.17", date(2019, 3, 14))
				d := Disposition{
					FMVAtExercise: price(fmv),
					ExitPrice:     price(exit),
					Shares:        shares(333),
					ExerciseDate:  date(2020, 7, 1),
					SaleDate:      date(2021, 2, 1),
				}
				res, err := ComputeTax(g, d, flatSettings())
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				want := res.GrossProceeds.Sub(res.ExerciseCost).Sub(res.TotalTax)
				if !res.NetProceeds.Equal(want) {
					t.Fatalf("%s exit=%s fmv=%s: net %s != %s", typ, exit, fmv, res.NetProceeds, want)
				}
				if res.TotalTax.IsNegative() {
					t.Fatalf("%s exit=%s fmv=%s: negative tax %s", typ, exit, fmv, res.TotalTax)
				}
			}
		}
	}
}
