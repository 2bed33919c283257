package server

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rezonia/quote-vat/internal/vat"
)

// ClassifyRequest is the body of the classify endpoint. Numbers may be
// sent as JSON numbers or strings.
type ClassifyRequest struct {
	Text          string              `json:"text"`
	FileName      string              `json:"file_name,omitempty"`
	Insurer       string              `json:"insurer,omitempty"`
	Premium       decimal.NullDecimal `json:"premium"`
	VATPercentage decimal.NullDecimal `json:"vat_percentage"`
	VATAmount     decimal.NullDecimal `json:"vat_amount"`
	PolicyFee     decimal.NullDecimal `json:"policy_fee"`
}

// BatchRequest is the body of the batch endpoint
type BatchRequest struct {
	Documents []ClassifyRequest `json:"documents"`
}

// ClassifyResponse is returned for an accepted document
type ClassifyResponse struct {
	ID                uuid.UUID  `json:"id"`
	FileName          string     `json:"file_name,omitempty"`
	Insurer           string     `json:"insurer,omitempty"`
	Reference         string     `json:"reference,omitempty"`
	Pages             int        `json:"pages,omitempty"`
	Record            vat.Record `json:"record"`
	StatedPremium     *float64   `json:"stated_premium"`
	ComparisonPremium *float64   `json:"comparison_premium"`
	PolicyFee         *float64   `json:"policy_fee"`
	TotalAnnualCost   *float64   `json:"total_annual_cost"`
	Method            string     `json:"method"`
	Warnings          []string   `json:"warnings,omitempty"`
}

// ViolationResponse is returned for a document rejected by the VAT policy
type ViolationResponse struct {
	Error        string    `json:"error"`
	Code         string    `json:"code"`
	VATClass     vat.Class `json:"vat_class"`
	Message      string    `json:"message"`
	DetectedRate *float64  `json:"detected_rate"`
	Pattern      string    `json:"pattern,omitempty"`
}

// BatchItem is the outcome of one document in a batch. Exactly one of
// Result, Violation and Error is set.
type BatchItem struct {
	Index     int                `json:"index"`
	FileName  string             `json:"file_name,omitempty"`
	Result    *ClassifyResponse  `json:"result,omitempty"`
	Violation *ViolationResponse `json:"violation,omitempty"`
	Error     string             `json:"error,omitempty"`
	Duplicate bool               `json:"duplicate,omitempty"`
}

// BatchResponse is the response of the batch endpoint
type BatchResponse struct {
	Results  []BatchItem `json:"results"`
	Accepted int         `json:"accepted"`
	Rejected int         `json:"rejected"`
	Failed   int         `json:"failed"`
}

// InfoResponse is the response for info endpoint
type InfoResponse struct {
	Format   string    `json:"format"`
	MimeType string    `json:"mime_type"`
	Size     int       `json:"size"`
	Pages    *int      `json:"pages,omitempty"`
	Insurer  string    `json:"insurer,omitempty"`
	VATClass vat.Class `json:"vat_class,omitempty"`
	Rejected bool      `json:"rejected,omitempty"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error    string   `json:"error"`
	Details  string   `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
