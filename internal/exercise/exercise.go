// Package exercise computes the cash needed to exercise options.
//
// Form input arrives half-typed while the user is still editing, so the
// loose entry point coerces strings and numbers and treats anything it cannot
// read as zero instead of failing.
package exercise

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ComputeExerciseCost returns shares × strikePrice. Missing, zero, negative or
// unparsable inputs yield zero.
func ComputeExerciseCost(shares, strikePrice any) decimal.Decimal {
	return ExerciseCost(CoerceShares(shares), CoercePrice(strikePrice))
}

func ExerciseCost(shares int64, price decimal.Decimal) decimal.Decimal {
	if shares <= 0 || !price.IsPositive() {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(shares))
}

// CoerceShares reads a whole share count. Fractions are truncated and strings
// are read up to the first non-digit, so "200 shares" is 200.
func CoerceShares(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint32:
		return int64(x)
	case float32:
		return truncate(float64(x))
	case float64:
		return truncate(x)
	case decimal.Decimal:
		return x.IntPart()
	case string:
		return parseIntPrefix(x)
	case fmt.Stringer:
		return parseIntPrefix(x.String())
	}
	return 0
}

// CoercePrice reads a decimal price. Strings are read up to the end of the
// leading number, so "1.5 USD" is 1.5.
func CoercePrice(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case decimal.Decimal:
		return x
	case decimal.NullDecimal:
		if !x.Valid {
			return decimal.Zero
		}
		return x.Decimal
	case string:
		return parseFloatPrefix(x)
	case fmt.Stringer:
		return parseFloatPrefix(x.String())
	}
	return decimal.Zero
}

func truncate(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func parseIntPrefix(s string) int64 {
	s = strings.TrimSpace(s)
	end := signEnd(s)
	digits := end
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseFloatPrefix(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	end := signEnd(s)
	mantissa := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		mantissa++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			mantissa++
		}
	}
	if mantissa == 0 {
		return decimal.Zero
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		exp += signEnd(s[exp:])
		start := exp
		for exp < len(s) && isDigit(s[exp]) {
			exp++
		}
		if exp > start {
			end = exp
		}
	}
	num := strings.TrimSuffix(s[:end], ".")
	if sign := signEnd(num); strings.HasPrefix(num[sign:], ".") {
		num = num[:sign] + "0" + num[sign:]
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func signEnd(s string) int {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		return 1
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
