package vat

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/quote-vat/internal/decimal"
)

// ComparisonPremium normalizes a stated premium so quotes from
// inclusive and exclusive providers compare as final totals.
// P1 premiums are used as-is. P2 premiums get the VAT amount added,
// computed at the standard rate when the classification has none.
func ComparisonPremium(c *Classification, stated decimal.Decimal) decimal.Decimal {
	if c == nil || c.Class != ClassP2 {
		return stated
	}
	if c.VATAmount.Valid {
		return stated.Add(c.VATAmount.Decimal)
	}
	return stated.Add(money.CalculateVAT(stated, StandardRate))
}

// TotalAnnualCost is the comparison premium plus the policy fee. A null
// fee counts as zero.
func TotalAnnualCost(c *Classification, stated decimal.Decimal, policyFee decimal.NullDecimal) decimal.Decimal {
	parts := []decimal.Decimal{ComparisonPremium(c, stated)}
	if policyFee.Valid {
		parts = append(parts, policyFee.Decimal)
	}
	return money.RoundHalala(money.Sum(parts))
}
