// Package quotevat provides a public API for classifying the VAT
// presentation of Saudi insurance quotes.
//
// Example usage:
//
//	c, err := quotevat.Classify(text, quotevat.Hints{})
//	if v, ok := quotevat.AsPolicyViolation(err); ok {
//	    log.Printf("rejected: %s", v.Message)
//	    return
//	}
//	premium := quotevat.ComparisonPremium(c, stated)
package quotevat

import (
	"github.com/shopspring/decimal"

	"github.com/rezonia/quote-vat/internal/model"
	"github.com/rezonia/quote-vat/internal/vat"
)

// Re-export core types for public API
type (
	Class           = vat.Class
	Confidence      = vat.Confidence
	Classification  = vat.Classification
	Hints           = vat.Hints
	Record          = vat.Record
	RecordDetail    = vat.RecordDetail
	PolicyViolation = vat.PolicyViolation
	Quote           = model.Quote
)

// Re-export VAT classes
const (
	ClassP1 = vat.ClassP1
	ClassP2 = vat.ClassP2
	ClassP5 = vat.ClassP5
	ClassP6 = vat.ClassP6
)

// Re-export confidence levels
const (
	ConfidenceHigh   = vat.ConfidenceHigh
	ConfidenceMedium = vat.ConfidenceMedium
	ConfidenceLow    = vat.ConfidenceLow
)

// Re-export violation codes
const (
	ErrCodeZeroVAT         = vat.ErrCodeZeroVAT
	ErrCodeNonStandardRate = vat.ErrCodeNonStandardRate
)

// Re-export error types
type (
	ParseError      = model.ParseError
	ValidationError = model.ValidationError
	ExtractionError = model.ExtractionError
)

// StandardRate is the Saudi standard VAT rate in percent
var StandardRate = vat.StandardRate

// Classify assigns a VAT class to the full text of one document. A zero or
// non-standard stated rate returns a *PolicyViolation and no classification.
func Classify(text string, hints Hints) (*Classification, error) {
	return vat.Classify(text, hints)
}

// ComparisonPremium returns the VAT-inclusive premium used to rank quotes
func ComparisonPremium(c *Classification, stated decimal.Decimal) decimal.Decimal {
	return vat.ComparisonPremium(c, stated)
}

// TotalAnnualCost adds an optional policy fee to the comparison premium
func TotalAnnualCost(c *Classification, stated decimal.Decimal, policyFee decimal.NullDecimal) decimal.Decimal {
	return vat.TotalAnnualCost(c, stated, policyFee)
}

// NewRecord flattens a classification into its persisted shape
func NewRecord(c *Classification) Record {
	return vat.NewRecord(c)
}

// AsPolicyViolation extracts a PolicyViolation from err
func AsPolicyViolation(err error) (*PolicyViolation, bool) {
	return vat.AsPolicyViolation(err)
}
