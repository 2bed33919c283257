// Package vat classifies insurance quote text into VAT presentation
// classes and gates documents that state a disallowed VAT rate.
package vat

import (
	"github.com/shopspring/decimal"
)

// Class is the VAT presentation class of a quote
type Class string

// P3 and P4 are retired and never emitted.
const (
	ClassP1 Class = "P1" // VAT inclusive
	ClassP2 Class = "P2" // VAT exclusive
	ClassP5 Class = "P5" // zero VAT, rejected
	ClassP6 Class = "P6" // non-standard rate, rejected
)

// Rejected reports whether documents of this class must not be compared
func (c Class) Rejected() bool {
	return c == ClassP5 || c == ClassP6
}

// Confidence of a classification
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DetectionMethod tags results produced by this version of the tables
const DetectionMethod = "pattern_first_v9"

// StandardRate is the Saudi standard VAT rate in percent
var StandardRate = decimal.NewFromInt(15)

// Warnings attached to assumed or ambiguous classifications
const (
	WarningGenericMention = "VAT mentioned but no directional statement found; defaulted to P2 with Saudi standard 15%."
	WarningNoPattern      = "No explicit VAT patterns found. Defaulting to P2 with Saudi standard 15% VAT."
	WarningAmbiguous      = "Both VAT-exclusive and VAT-inclusive phrasing found; exclusive statement takes precedence."
)

// Classification is the outcome for one accepted document.
// It is built once per document and never mutated afterwards.
type Classification struct {
	Class                Class               `json:"vat_class"`
	VATPercentage        decimal.NullDecimal `json:"vat_percentage"`
	VATAmount            decimal.NullDecimal `json:"vat_amount"`
	DetectionMethod      string              `json:"detection_method"`
	PatternMatched       *string             `json:"pattern_matched"`
	Confidence           Confidence          `json:"confidence"`
	IsAssumed            bool                `json:"is_assumed"`
	Warning              *string             `json:"warning"`
	RequiresVerification bool                `json:"requires_verification"`
}

// Hints are values supplied by an upstream extractor. They are untrusted.
type Hints struct {
	Premium       decimal.NullDecimal
	VATPercentage decimal.NullDecimal
	VATAmount     decimal.NullDecimal
}

func newClassification(class Class, confidence Confidence, pattern *string) *Classification {
	return &Classification{
		Class:                class,
		DetectionMethod:      DetectionMethod,
		PatternMatched:       pattern,
		Confidence:           confidence,
		RequiresVerification: confidence == ConfidenceLow,
	}
}

func stringPtr(s string) *string {
	return &s
}
