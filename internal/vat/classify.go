package vat

import (
	"github.com/shopspring/decimal"

	money "github.com/rezonia/quote-vat/internal/decimal"
)

// Classify assigns a VAT class to the full text of one document.
//
// Steps run in a fixed order and the first that decides wins:
// explicit rate check, exclusive, inclusive, generic mention, fallback.
// A zero or non-standard rate returns a *PolicyViolation and no
// classification. Hints are cross-checked against the text before use.
func Classify(text string, hints Hints) (*Classification, error) {
	normalized := Normalize(text)

	if v := rateViolation(normalized); v != nil {
		return nil, v
	}

	trusted, _ := crossCheck(normalized, hints)
	computed := standardVAT(hints.Premium)

	if rule, ok := firstMatch(exclusiveRules, normalized); ok {
		c := newClassification(ClassP2, ConfidenceHigh, stringPtr(rule.Pattern))
		c.VATPercentage = money.Null(StandardRate)
		c.VATAmount = firstValid(extractAmount(normalized), trusted.VATAmount, computed)
		if hasInclusiveRemainder(normalized) {
			c.Warning = stringPtr(WarningAmbiguous)
		}
		return c, nil
	}

	if rule, ok := firstMatch(inclusiveRules, normalized); ok {
		return newClassification(ClassP1, ConfidenceHigh, stringPtr(rule.Pattern)), nil
	}

	if rule, ok := firstMatch(genericRules, normalized); ok {
		c := newClassification(ClassP2, ConfidenceMedium, stringPtr(rule.Pattern))
		c.VATPercentage = money.Null(StandardRate)
		c.VATAmount = computed
		c.IsAssumed = true
		c.Warning = stringPtr(WarningGenericMention)
		return c, nil
	}

	c := newClassification(ClassP2, ConfidenceLow, nil)
	c.VATPercentage = money.Null(StandardRate)
	c.VATAmount = computed
	c.IsAssumed = true
	c.Warning = stringPtr(WarningNoPattern)
	return c, nil
}

// RateViolation runs only the explicit rate check. Any zero rate wins,
// otherwise the first non-standard rate in table order is reported.
func RateViolation(text string) *PolicyViolation {
	return rateViolation(Normalize(text))
}

func rateViolation(normalized string) *PolicyViolation {
	var nonStandard *PolicyViolation
	for _, rule := range rateRules {
		for _, raw := range rule.Submatches(normalized) {
			r, err := decimal.NewFromString(raw)
			if err != nil {
				continue
			}
			switch {
			case r.IsZero():
				return ErrZeroVAT(r, rule.Pattern)
			case !r.Equal(StandardRate) && nonStandard == nil:
				nonStandard = ErrNonStandardRate(r, rule.Pattern)
			}
		}
	}
	return nonStandard
}

// ExtractAmount returns the first positive VAT amount captured by an
// exclusive amount rule, scanning rules in table order.
func ExtractAmount(text string) decimal.NullDecimal {
	return extractAmount(Normalize(text))
}

func extractAmount(normalized string) decimal.NullDecimal {
	if found := amountCandidates(normalized); len(found) > 0 {
		return money.Null(found[0])
	}
	return decimal.NullDecimal{}
}

// amountCandidates lists every positive figure captured by an exclusive
// amount rule, in table order.
func amountCandidates(normalized string) []decimal.Decimal {
	var found []decimal.Decimal
	for _, rule := range exclusiveRules {
		if rule.Captures != CaptureAmount {
			continue
		}
		for _, raw := range rule.Submatches(normalized) {
			if d, err := money.ParseAmount(raw); err == nil {
				found = append(found, d)
			}
		}
	}
	return found
}

// hasInclusiveRemainder reports whether inclusive phrasing survives once
// every exclusive match is blanked out, so "not inclusive of VAT" does
// not count as inclusive.
func hasInclusiveRemainder(normalized string) bool {
	rest := normalized
	for _, rule := range exclusiveRules {
		rest = rule.strip(rest)
	}
	_, ok := firstMatch(inclusiveRules, rest)
	return ok
}

// standardVAT is 15% of a positive premium, or null without one
func standardVAT(premium decimal.NullDecimal) decimal.NullDecimal {
	if !premium.Valid || !money.IsPositive(premium.Decimal) {
		return decimal.NullDecimal{}
	}
	return money.Null(money.CalculateVAT(premium.Decimal, StandardRate))
}

func firstValid(values ...decimal.NullDecimal) decimal.NullDecimal {
	for _, v := range values {
		if v.Valid {
			return v
		}
	}
	return decimal.NullDecimal{}
}
