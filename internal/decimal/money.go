package decimal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// Hundred is used for percentage math
var Hundred = decimal.NewFromInt(100)

// currencyReplacer strips currency tokens and separators seen in Saudi quotes
var currencyReplacer = strings.NewReplacer(
	"S.R.", "",
	"SAR.", "",
	"SAR", "",
	"SR.", "",
	"SR", "",
	"ر.س", "",
	"ريال", "",
	",", "",
	"/-", "",
	"\u00a0", "",
	" ", "",
	"\t", "",
	"\n", "",
)

// ParseAmount parses a currency token such as "SAR 5,000.50" or "1,500/-".
// Only strictly positive values are accepted.
func ParseAmount(text string) (decimal.Decimal, error) {
	cleaned := currencyReplacer.Replace(strings.ToUpper(strings.TrimSpace(text)))
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return Zero, fmt.Errorf("empty amount %q", text)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if !IsPositive(d) {
		return Zero, fmt.Errorf("amount %q is not positive", text)
	}
	return d, nil
}

// CalculateVAT computes VAT amount: amount * (rate/100), rounded to halalas
func CalculateVAT(amount, ratePercent decimal.Decimal) decimal.Decimal {
	if ratePercent.IsZero() {
		return Zero
	}
	return amount.Mul(ratePercent).Div(Hundred).Round(2)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// IsNonNegative returns true if decimal is >= zero
func IsNonNegative(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Zero)
}

// RoundHalala rounds to 2 decimals (1 SAR = 100 halalas)
func RoundHalala(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Null wraps d as a valid NullDecimal
func Null(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

// Float returns a pointer to the float value of n, or nil when n is null
func Float(n decimal.NullDecimal) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Decimal.InexactFloat64()
	return &f
}
