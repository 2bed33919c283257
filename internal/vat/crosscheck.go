package vat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/quote-vat/internal/decimal"
)

var (
	percentTokenPattern = regexp.MustCompile(`(?i)(?:^|[^\d.,])(\d{1,3}(?:\.\d+)?)\s*(?:%|percent\b)`)
	numberTokenPattern  = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
)

// CrossCheck validates hints against the pattern tables. A hinted VAT
// percentage must appear as a literal percent token; a hinted VAT amount
// must equal a figure captured by an exclusive amount rule. Anything else
// is dropped and described in the returned notes. The premium hint is
// passed through unchanged.
func CrossCheck(text string, hints Hints) (Hints, []string) {
	return crossCheck(Normalize(text), hints)
}

func crossCheck(normalized string, hints Hints) (Hints, []string) {
	trusted := hints
	var notes []string

	if p := hints.VATPercentage; p.Valid && !containsPercent(normalized, p.Decimal) {
		notes = append(notes, fmt.Sprintf("discarded VAT percentage %s%%: not found in document text", p.Decimal.String()))
		trusted.VATPercentage = decimal.NullDecimal{}
	}

	if a := hints.VATAmount; a.Valid {
		switch {
		case !money.IsPositive(a.Decimal):
			notes = append(notes, fmt.Sprintf("discarded VAT amount %s: not positive", a.Decimal.String()))
			trusted.VATAmount = decimal.NullDecimal{}
		case !statedVATAmount(normalized, a.Decimal):
			notes = append(notes, fmt.Sprintf("discarded VAT amount %s: not stated as a VAT amount in document text", a.Decimal.String()))
			trusted.VATAmount = decimal.NullDecimal{}
		}
	}

	return trusted, notes
}

// ContainsAmount reports whether want appears as a literal number in the
// text, with or without thousands separators.
func ContainsAmount(text string, want decimal.Decimal) bool {
	for _, tok := range numberTokenPattern.FindAllString(Normalize(text), -1) {
		d, err := decimal.NewFromString(strings.ReplaceAll(tok, ",", ""))
		if err == nil && d.Equal(want) {
			return true
		}
	}
	return false
}

func containsPercent(text string, want decimal.Decimal) bool {
	for _, m := range percentTokenPattern.FindAllStringSubmatch(text, -1) {
		if d, err := decimal.NewFromString(m[1]); err == nil && d.Equal(want) {
			return true
		}
	}
	return false
}

func statedVATAmount(normalized string, want decimal.Decimal) bool {
	for _, d := range amountCandidates(normalized) {
		if d.Equal(want) {
			return true
		}
	}
	return false
}
