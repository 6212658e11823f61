// Package core holds the pure domain model of the finance engine.
//
// Monetary values are integer cents throughout; annual interest rates are
// integer basis points. Fractional math goes through shopspring/decimal and
// is rounded half-up to whole cents at every mutation boundary so repeated
// operations never accumulate floating-point drift.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// monthlyRateDivisor converts annual basis points into a monthly rate:
// bps / 10000 gives the annual fraction, / 12 the monthly one.
const monthlyRateDivisor = 10000 * 12

// MonthlyInterestCents returns one month of interest on a balance, rounded
// half-up to whole cents. Zero for non-positive balances or rates.
func MonthlyInterestCents(balanceCents, rateBps int64) int64 {
	if balanceCents <= 0 || rateBps <= 0 {
		return 0
	}
	interest := decimal.NewFromInt(balanceCents).
		Mul(decimal.NewFromInt(rateBps)).
		Div(decimal.NewFromInt(monthlyRateDivisor))
	// decimal.Round is half-away-from-zero, which is half-up for the
	// positive amounts handled here.
	return interest.Round(0).IntPart()
}

// PercentOf returns part/whole as a percentage, 0 when whole is 0.
func PercentOf(partCents, wholeCents int64) float64 {
	if wholeCents <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(partCents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(wholeCents)).
		Round(2).
		Float64()
	return pct
}

// ParseDecimalToCents converts a decimal amount string to cents. It accepts
// both dot and comma separators and rounds half-up on the third decimal.
// Negative amounts are rejected; zero is allowed (a category limit may be 0).
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// FormatCents renders cents as a plain decimal string ("1234" -> "12.34").
func FormatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + twoDigits(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
