package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source identifies where the quote text came from
type Source string

const (
	SourcePDF     Source = "pdf"
	SourceText    Source = "text"
	SourceUnknown Source = "unknown"
)

// DefaultCurrency is the currency quotes are compared in
const DefaultCurrency = "SAR"

// Quote is one uploaded insurance quote document
type Quote struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"file_name,omitempty"`
	Source    Source    `json:"source"`
	Text      string    `json:"-"`
	Pages     int       `json:"pages,omitempty"`
	Insurer   string    `json:"insurer,omitempty"`
	Reference string    `json:"reference,omitempty"`
	Currency  string    `json:"currency"`

	// Upstream hints. Never trusted without a text cross-check.
	StatedPremium decimal.NullDecimal `json:"stated_premium"`
	VATPercentage decimal.NullDecimal `json:"vat_percentage"`
	VATAmount     decimal.NullDecimal `json:"vat_amount"`
	PolicyFee     decimal.NullDecimal `json:"policy_fee"`
}

// NewQuote creates a quote with a fresh ID
func NewQuote(fileName string, source Source, text string) *Quote {
	return &Quote{
		ID:       uuid.New(),
		FileName: fileName,
		Source:   source,
		Text:     text,
		Currency: DefaultCurrency,
	}
}

// HasText reports whether any non-blank text was extracted
func (q *Quote) HasText() bool {
	return strings.TrimSpace(q.Text) != ""
}
