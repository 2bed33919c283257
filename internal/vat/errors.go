package vat

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error codes for policy violations
const (
	ErrCodeZeroVAT         = "ZERO_VAT"
	ErrCodeNonStandardRate = "NON_STANDARD_RATE"
)

// PolicyViolation rejects a document whose stated VAT rate is not allowed.
// It is fatal for the document only; callers must not rank or store it.
type PolicyViolation struct {
	Code         string
	Class        Class
	Message      string
	DetectedRate decimal.NullDecimal
	Pattern      string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("[%s] VAT policy violation %s: %s", e.Code, e.Class, e.Message)
}

// Rate returns the detected rate as a float, or nil when none was captured
func (e *PolicyViolation) Rate() *float64 {
	if !e.DetectedRate.Valid {
		return nil
	}
	f := e.DetectedRate.Decimal.InexactFloat64()
	return &f
}

// NewPolicyViolation creates a new policy violation
func NewPolicyViolation(code string, class Class, message string, rate decimal.NullDecimal, pattern string) *PolicyViolation {
	return &PolicyViolation{
		Code:         code,
		Class:        class,
		Message:      message,
		DetectedRate: rate,
		Pattern:      pattern,
	}
}

// ErrZeroVAT returns the P5 violation
func ErrZeroVAT(rate decimal.Decimal, pattern string) *PolicyViolation {
	return NewPolicyViolation(ErrCodeZeroVAT, ClassP5,
		"zero VAT explicitly stated",
		decimal.NewNullDecimal(rate), pattern)
}

// ErrNonStandardRate returns the P6 violation carrying the detected rate
func ErrNonStandardRate(rate decimal.Decimal, pattern string) *PolicyViolation {
	return NewPolicyViolation(ErrCodeNonStandardRate, ClassP6,
		fmt.Sprintf("non-standard VAT rate %s%% (allowed: %s%%)", rate.String(), StandardRate.String()),
		decimal.NewNullDecimal(rate), pattern)
}

// AsPolicyViolation extracts a PolicyViolation from err
func AsPolicyViolation(err error) (*PolicyViolation, bool) {
	var v *PolicyViolation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
