package vat

import (
	money "github.com/rezonia/quote-vat/internal/decimal"
)

// Record is the serialized form handed to storage
type Record struct {
	VATClass           Class        `json:"vat_class"`
	VATPercentage      *float64     `json:"vat_percentage"`
	VATAmount          *float64     `json:"vat_amount"`
	VATDetectionMethod string       `json:"vat_detection_method"`
	VATClassification  RecordDetail `json:"vat_classification"`
}

// RecordDetail is the nested vat_classification object
type RecordDetail struct {
	Class                Class      `json:"class"`
	DetectionMethod      string     `json:"detection_method"`
	PatternMatched       *string    `json:"pattern_matched"`
	Confidence           Confidence `json:"confidence"`
	IsAssumed            bool       `json:"is_assumed"`
	Warning              *string    `json:"warning"`
	RequiresVerification bool       `json:"requires_verification"`
}

// NewRecord flattens a classification into its persisted shape
func NewRecord(c *Classification) Record {
	return Record{
		VATClass:           c.Class,
		VATPercentage:      money.Float(c.VATPercentage),
		VATAmount:          money.Float(c.VATAmount),
		VATDetectionMethod: c.DetectionMethod,
		VATClassification: RecordDetail{
			Class:                c.Class,
			DetectionMethod:      c.DetectionMethod,
			PatternMatched:       c.PatternMatched,
			Confidence:           c.Confidence,
			IsAssumed:            c.IsAssumed,
			Warning:              c.Warning,
			RequiresVerification: c.RequiresVerification,
		},
	}
}
