package processor

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/quote-vat/internal/decimal"
	"github.com/rezonia/quote-vat/internal/vat"
)

const reFigure = `(?:SAR|SR\.?|S\.R\.)?\s*(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`

// premiumLabels are tried in order; the first labelled figure wins
var premiumLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bnet\s+premium\b[^\d%]{0,30}?` + reFigure),
	regexp.MustCompile(`(?i)\bbase\s+premium\b[^\d%]{0,30}?` + reFigure),
	regexp.MustCompile(`(?i)\bannual\s+premium\b[^\d%]{0,30}?` + reFigure),
	regexp.MustCompile(`(?i)\btotal\s+premium\b[^\d%]{0,40}?` + reFigure),
	regexp.MustCompile(`(?i)\bpremium\b[^\d%]{0,30}?` + reFigure),
}

var policyFeePattern = regexp.MustCompile(`(?i)\b(?:policy|issuance|admin(?:istration)?)\s+fees?\b[^\d%]{0,30}?` + reFigure)

var referencePattern = regexp.MustCompile(
	`(?i)\b(?:quot(?:e|ation)|policy)\s*(?:no\.?|number|#|ref(?:erence)?\.?)\s*[:.]?\s*([A-Z0-9][A-Z0-9/\-]{2,})`)

// ExtractPremium returns the first labelled premium figure in the text.
// Figures immediately followed by a percent sign are ignored.
func ExtractPremium(text string) decimal.NullDecimal {
	normalized := vat.Normalize(text)
	for _, re := range premiumLabels {
		for _, loc := range re.FindAllStringSubmatchIndex(normalized, -1) {
			end := loc[3]
			if end < len(normalized) && normalized[end] == '%' {
				continue
			}
			if d, err := money.ParseAmount(normalized[loc[2]:end]); err == nil {
				return money.Null(d)
			}
		}
	}
	return decimal.NullDecimal{}
}

// ExtractPolicyFee returns the first labelled policy fee in the text
func ExtractPolicyFee(text string) decimal.NullDecimal {
	normalized := vat.Normalize(text)
	for _, m := range policyFeePattern.FindAllStringSubmatch(normalized, -1) {
		if d, err := money.ParseAmount(m[1]); err == nil {
			return money.Null(d)
		}
	}
	return decimal.NullDecimal{}
}

// ExtractReference returns the quotation or policy number, or ""
func ExtractReference(text string) string {
	m := referencePattern.FindStringSubmatch(vat.Normalize(text))
	if m == nil {
		return ""
	}
	return strings.TrimRight(m[1], "/-")
}

var fingerprintSpace = regexp.MustCompile(`\s+`)

// Fingerprint identifies a quote for duplicate detection within a batch.
// It is empty when the premium is unknown or neither insurer nor
// reference is known.
func Fingerprint(insurer, reference string, premium decimal.NullDecimal) string {
	if !premium.Valid || (strings.TrimSpace(insurer) == "" && strings.TrimSpace(reference) == "") {
		return ""
	}
	fp := strings.ToLower(insurer + "_" + reference + "_" + premium.Decimal.StringFixed(2))
	return fingerprintSpace.ReplaceAllString(fp, "")
}
