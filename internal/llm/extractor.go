package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/quote-vat/internal/decimal"
	"github.com/rezonia/quote-vat/internal/model"
)

// MaxPromptChars bounds the document text sent to the model.
// The classifier always sees the full text.
const MaxPromptChars = 24000

// Amount is a lenient JSON number. It accepts numbers, numeric strings
// such as "SAR 5,000" or "15%", and null. Anything unparsable or not
// positive decodes to null.
type Amount struct {
	decimal.NullDecimal
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	a.NullDecimal = decimal.NullDecimal{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}

	if d, err := money.ParseAmount(raw); err == nil {
		a.NullDecimal = money.Null(d)
	}
	return nil
}

// MarshalJSON writes the amount as a bare number or null
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Decimal.String()), nil
}

// Fields are the quote figures returned by the model
type Fields struct {
	Insurer           string  `json:"insurer"`
	Premium           Amount  `json:"premium"`
	VATPercentage     Amount  `json:"vat_percentage"`
	VATAmount         Amount  `json:"vat_amount"`
	TotalIncludingVAT Amount  `json:"total_including_vat"`
	PolicyFee         Amount  `json:"policy_fee"`
	Currency          string  `json:"currency"`
	Confidence        float64 `json:"confidence"`
}

// Extractor extracts quote fields using an LLM
type Extractor struct {
	client *Client
	model  string
}

// ExtractorOption configures the extractor
type ExtractorOption func(*Extractor)

// WithModel sets the model used for extraction
func WithModel(model string) ExtractorOption {
	return func(e *Extractor) {
		e.model = model
	}
}

// NewExtractor creates a new LLM field extractor
func NewExtractor(client *Client, opts ...ExtractorOption) *Extractor {
	e := &Extractor{client: client}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractQuoteFields asks the model for the quote figures. The returned
// confidence is clamped to [0, 1]. Values are untrusted hints.
func (e *Extractor) ExtractQuoteFields(ctx context.Context, text string) (*Fields, float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, 0, model.NewExtractionError("llm", "empty document text", nil)
	}

	prompt := fmt.Sprintf(UserPromptQuoteExtraction, truncate(text, MaxPromptChars))
	resp, err := e.client.ChatText(ctx, e.model, SystemPromptQuoteExtractor, prompt)
	if err != nil {
		return nil, 0, model.NewExtractionError("llm", "chat request failed", err)
	}

	fields, err := ParseFields(resp)
	if err != nil {
		return nil, 0, model.NewExtractionError("llm", "invalid model response", err)
	}

	return fields, clamp(fields.Confidence), nil
}

// ParseFields decodes a model response, tolerating markdown code fences
func ParseFields(response string) (*Fields, error) {
	var fields Fields
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	fields.Insurer = strings.TrimSpace(fields.Insurer)
	fields.Currency = strings.ToUpper(strings.TrimSpace(fields.Currency))
	return &fields, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
