package vat

import (
	"regexp"
	"slices"
	"strings"
)

// Capture tells what a rule's first submatch holds
type Capture int

const (
	CaptureNone Capture = iota
	CaptureRate
	CaptureAmount
)

// Rule is one entry of a pattern table. Pattern is the source text
// reported as pattern_matched; it is compiled case-insensitively.
type Rule struct {
	Name     string
	Pattern  string
	Captures Capture
	Example  string

	re *regexp.Regexp
}

func newRule(name, pattern string, captures Capture, example string) Rule {
	return Rule{
		Name:     name,
		Pattern:  pattern,
		Captures: captures,
		Example:  example,
		re:       regexp.MustCompile(`(?i)` + pattern),
	}
}

// Match reports whether the rule matches normalized text
func (r Rule) Match(text string) bool {
	return r.re.MatchString(text)
}

// Submatches returns the first capture of every match in position order.
// Matches whose text ends with a percent sign are skipped for amount rules.
func (r Rule) Submatches(text string) []string {
	if r.Captures == CaptureNone {
		return nil
	}
	var out []string
	for _, m := range r.re.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 || m[1] == "" {
			continue
		}
		if r.Captures == CaptureAmount && strings.HasSuffix(m[0], "%") {
			continue
		}
		out = append(out, m[1])
	}
	return out
}

func (r Rule) strip(text string) string {
	return r.re.ReplaceAllLiteralString(text, " ")
}

const (
	reNum    = `\d[\d,]*(?:\.\d+)?`
	reAmount = `(` + reNum + `)`
	reRate   = `(\d{1,3}(?:\.\d+)?)`
	rePct    = `\s*(?:%|percent\b)`
	reSAR    = `(?:SAR|SR|S\.R\.)\s*\.?\s*`
	reStd    = `15(?:\.0+)?\s*%`
	reVATAr  = `ضريبة\s+القيمة\s+المضافة`
)

// rateRules detect an explicit VAT rate token of any value
var rateRules = []Rule{
	newRule("vat_rate", `\bVAT\s*(?:rate|percentage)?\s*(?:of|at|@)?\s*[:=|]?\s*\(?\s*`+reRate+rePct, CaptureRate, "VAT: 20%"),
	newRule("rate_vat", `(?:^|[^\d.,])`+reRate+rePct+`\s*\|?\s*(?:VAT|value\s+added\s+tax)\b`, CaptureRate, "SAR 5,000 + 69% VAT"),
	newRule("value_added_tax_rate", `\bvalue\s+added\s+tax\s*(?:rate)?\s*(?:of|at|@)?\s*[:=]?\s*\(?\s*`+reRate+rePct, CaptureRate, "Value Added Tax (5%)"),
	newRule("vat_charged_at_rate", `\bVAT\s+(?:is\s+|will\s+be\s+)?(?:charged|applied|applicable|levied)\s+at\s+(?:the\s+rate\s+of\s+)?`+reRate+rePct, CaptureRate, "VAT is charged at the rate of 10%"),
}

// exclusiveRules state that VAT is added on top of the premium
var exclusiveRules = []Rule{
	// direct keyword
	newRule("vat_exclusive", `\bVAT[\s-]+exclusive\b`, CaptureNone, "Premium (VAT exclusive)"),
	newRule("exclusive_of_vat", `\bexclusive\s+of\s+(?:the\s+)?VAT\b`, CaptureNone, "All prices are exclusive of VAT"),
	newRule("not_inclusive_of_vat", `\bnot\s+inclusive\s+of\s+VAT\b`, CaptureNone, "Premium is not inclusive of VAT"),
	newRule("vat_not_included", `\bVAT\s+(?:is\s+)?not\s+included\b`, CaptureNone, "VAT not included"),
	newRule("excluding_vat", `\bexcluding\s+VAT\b`, CaptureNone, "Total excluding VAT"),
	newRule("excludes_vat", `\bexcludes?\s+(?:the\s+)?VAT\b`, CaptureNone, "The premium excludes VAT"),
	newRule("excl_vat", `\bexcl(?:\.\s*|\s+)VAT\b`, CaptureNone, "SAR 4,200 excl. VAT"),
	newRule("vat_excluded", `\bVAT\s+(?:is\s+)?excluded\b`, CaptureNone, "VAT excluded"),
	newRule("without_vat", `\bwithout\s+VAT\b`, CaptureNone, "Premium without VAT"),
	newRule("before_vat", `\bbefore\s+VAT\b`, CaptureNone, "Net premium before VAT"),
	newRule("ex_vat", `\bex[\s.-]+VAT\b`, CaptureNone, "SAR 3,000 ex-VAT"),
	newRule("net_of_vat", `\bnet\s+of\s+VAT\b`, CaptureNone, "Rates are net of VAT"),
	newRule("exclusive_of_taxes", `\bexclusive\s+of\s+(?:all\s+)?taxes\b`, CaptureNone, "Premium exclusive of all taxes"),
	newRule("vat_exclusive_ar", `غير\s+شامل(?:ة)?\s+(?:ل)?`+reVATAr, CaptureNone, "غير شامل ضريبة القيمة المضافة"),

	// additive
	newRule("plus_applicable_vat", `(?:\bplus|\+|\band)\s+applicable\s+VAT\b`, CaptureNone, "SAR 5,000 plus applicable VAT"),
	newRule("plus_vat", `\bplus\s+VAT\b`, CaptureNone, "Premium plus VAT"),
	newRule("plus_sign_vat", `\+\s*VAT\b`, CaptureNone, "Premium + VAT"),
	newRule("vat_will_be_added", `\bVAT\s+(?:will|shall)\s+be\s+added\b`, CaptureNone, "VAT will be added"),
	newRule("vat_to_be_added", `\bVAT\s+(?:is\s+)?to\s+be\s+added\b`, CaptureNone, "VAT to be added"),
	newRule("add_vat", `\badd(?:ed)?\s+VAT\b`, CaptureNone, "Add VAT to the premium"),
	newRule("vat_additional", `\bVAT\s+(?:is\s+)?(?:additional|extra)\b`, CaptureNone, "VAT extra"),
	newRule("additional_vat", `\b(?:additional|extra)\s+VAT\b`, CaptureNone, "Additional VAT applies"),
	newRule("vat_on_top", `\bVAT\s+on\s+top\b`, CaptureNone, "VAT on top of premium"),
	newRule("vat_in_addition", `\bVAT\s+(?:is\s+)?(?:payable\s+)?in\s+addition\b`, CaptureNone, "VAT payable in addition"),
	newRule("plus_vat_ar", `\+\s*`+reVATAr, CaptureNone, "٥٠٠٠ + ضريبة القيمة المضافة"),

	// conditional
	newRule("vat_as_applicable", `\bVAT\s+as\s+applicable\b`, CaptureNone, "VAT as applicable"),
	newRule("vat_if_applicable", `\bVAT\s+(?:if|where|when)\s+applicable\b`, CaptureNone, "VAT where applicable"),
	newRule("vat_applicable", `\bVAT\s+(?:is\s+|will\s+be\s+)?applicable\b`, CaptureNone, "VAT applicable"),
	newRule("subject_to_vat", `\bsubject\s+to\s+VAT\b`, CaptureNone, "Premium subject to VAT"),
	newRule("vat_may_apply", `\bVAT\s+(?:may|will|shall)\s+apply\b`, CaptureNone, "VAT may apply"),
	newRule("vat_applies", `\bVAT\s+applies\b`, CaptureNone, "VAT applies"),
	newRule("insured_shall_pay_vat", `\binsured\s+(?:shall|will|must)\s+(?:pay|bear)\s+(?:the\s+)?VAT\b`, CaptureNone, "The insured shall pay VAT"),
	newRule("vat_payable_by_insured", `\bVAT\s+(?:is\s+)?payable\s+by\s+(?:the\s+)?(?:insured|client|customer|policyholder)\b`, CaptureNone, "VAT payable by insured"),
	newRule("vat_shall_be_paid", `\bVAT\s+(?:shall|will|must)\s+be\s+(?:paid|borne|collected)\b`, CaptureNone, "VAT shall be paid by the client"),
	newRule("vat_borne_by", `\bVAT\s+(?:is\s+|to\s+be\s+)?borne\s+by\b`, CaptureNone, "VAT to be borne by the insured"),
	newRule("vat_chargeable", `\bVAT\s+(?:is\s+)?chargeable\b`, CaptureNone, "VAT chargeable"),

	// standard rate
	newRule("vat_15_additional", `\bVAT\s*`+reStd+`\s+(?:additional|extra|to\s+be\s+added|will\s+apply)`, CaptureNone, "VAT 15% to be added"),
	newRule("vat_at_15", `\bVAT\s*(?:@|at)\s*`+reStd, CaptureNone, "VAT @ 15%"),
	newRule("vat_15", `\bVAT\s*(?:rate|percentage)?\s*[:=|]?\s*\(?\s*`+reStd, CaptureNone, "VAT (15%)"),
	newRule("15_vat", `(?:^|[^\d.,])`+reStd+`\s*VAT\b`, CaptureNone, "15% VAT"),
	newRule("15_percent_vat", `\b15\s+percent\s+VAT\b`, CaptureNone, "15 percent VAT"),
	newRule("value_added_tax_15", `\bvalue\s+added\s+tax\s*(?:@|at|of)?\s*:?\s*\(?\s*`+reStd, CaptureNone, "Value Added Tax @ 15%"),

	// explicit amount
	newRule("vat_amount_sar", `\bVAT\s*(?:amount)?\s*(?:\(\s*`+reStd+`\s*\)|@?\s*`+reStd+`)?\s*[:=-]?\s*`+reSAR+reAmount, CaptureAmount, "VAT: SAR 750"),
	newRule("vat_amount_suffix", `\bVAT\s*(?:amount)?\s*[:=-]?\s*`+reAmount+`\s*(?:SAR|SR)\b`, CaptureAmount, "VAT 1,500 SAR"),
	newRule("vat_amount", `\bVAT\s+amount\s*[:=-]?\s*`+reAmount+`\s*%?`, CaptureAmount, "VAT Amount: 750"),
	newRule("value_added_tax_amount", `\bvalue\s+added\s+tax\s*(?:amount)?\s*[:=-]?\s*`+reSAR+reAmount, CaptureAmount, "Value Added Tax: SAR 750"),
	newRule("sar_as_vat", `\b(?:SAR|SR)\s*\.?\s*`+reAmount+`\s+(?:as|for|towards)\s+VAT\b`, CaptureAmount, "SAR 750 towards VAT"),

	// arithmetic
	newRule("sar_plus_15_vat", `\b`+reSAR+reNum+`\s*\+\s*`+reStd+`\s*VAT\b`, CaptureNone, "SAR 5,000 + 15% VAT"),
	newRule("sar_plus_vat", `\b`+reSAR+reNum+`\s*\+\s*VAT\b`, CaptureNone, "SAR 5,000 + VAT"),
	newRule("plus_vat_15", `\+\s*VAT\s*@?\s*`+reStd, CaptureNone, "+ VAT 15%"),
	newRule("premium_plus_vat", `\bpremium\s*\+\s*VAT\b`, CaptureNone, "Net premium+VAT"),
	newRule("premium_plus_15", `\bpremium\s*\+\s*`+reStd, CaptureNone, "Premium + 15%"),
	newRule("sum_with_vat_amount", reNum+`\s*\+\s*(?:SAR|SR)?\s*\.?\s*`+reNum+`\s*\(?\s*VAT\b`, CaptureNone, "5,000 + 750 (VAT)"),

	// administrative
	newRule("vat_charged_at_billing", `\bVAT\s+(?:will\s+be\s+|to\s+be\s+|is\s+)?(?:charged|invoiced|billed)\s+(?:at|on|upon|during)\s+(?:the\s+time\s+of\s+)?(?:billing|invoicing|invoice)\b`, CaptureNone, "VAT charged at billing"),
	newRule("vat_charged_separately", `\bVAT\s+(?:will\s+be\s+|is\s+)?(?:charged|invoiced|billed|shown)\s+separately\b`, CaptureNone, "VAT will be invoiced separately"),
	newRule("vat_will_be_charged", `\bVAT\s+(?:will|shall)\s+be\s+(?:charged|levied|invoiced)\b`, CaptureNone, "VAT will be charged"),
	newRule("vat_as_per_law", `\bVAT\s+as\s+per\s+(?:the\s+)?(?:applicable\s+)?(?:law|regulations?|ZATCA)\b`, CaptureNone, "VAT as per law"),
	newRule("vat_according_to_regulations", `\bVAT\s+(?:according\s+to|in\s+accordance\s+with)\s+(?:the\s+)?(?:applicable\s+)?(?:regulations?|law|ZATCA)\b`, CaptureNone, "VAT according to regulations"),
	newRule("taxes_as_per_law", `\btax(?:es)?\s+as\s+per\s+(?:the\s+)?(?:applicable\s+)?(?:law|regulations?)\b`, CaptureNone, "Taxes as per law"),
	newRule("applicable_taxes_extra", `\bapplicable\s+taxes\s+(?:are\s+)?(?:extra|additional)\b`, CaptureNone, "Applicable taxes are extra"),
	newRule("statutory_taxes_payable", `\b(?:government|statutory)\s+(?:taxes|levies)\s+(?:are\s+)?(?:extra|additional|payable)\b`, CaptureNone, "Statutory levies payable"),
	newRule("vat_levied_by_zatca", `\bVAT\s+(?:as\s+)?(?:prescribed|levied)\s+by\s+ZATCA\b`, CaptureNone, "VAT as prescribed by ZATCA"),
}

// inclusiveRules state that VAT is already part of the stated premium
var inclusiveRules = []Rule{
	newRule("total_premium_with_vat_included", `\btotal\s+premium\s+with\s+VAT\s+included\b`, CaptureNone, "Total Premium with VAT included"),
	newRule("total_including_vat", `\btotal\s+(?:amount\s+|premium\s+|payable\s+)?(?:including|incl\.?|inclusive\s+of)\s+VAT\b`, CaptureNone, "Total payable including VAT"),
	newRule("total_includes_vat", `\btotal\b[^.]{0,60}?\bincludes\b[^.]{0,30}?\bVAT\b`, CaptureNone, "Total amount due includes applicable VAT"),
	newRule("premium_inclusive_vat", `\bpremium\b[^.]{0,60}?\binclusive\s+(?:of\s+)?VAT\b`, CaptureNone, "Premium is inclusive of VAT"),
	newRule("premium_includes_vat", `\bpremium\b[^.]{0,60}?\bincludes\s+VAT\b`, CaptureNone, "Annual premium includes VAT"),
	newRule("vat_already_included", `\bVAT\s+(?:has\s+been\s+|is\s+already\s+|already\s+)included\b`, CaptureNone, "VAT already included"),
	newRule("vat_inclusive", `\bVAT[\s-]+inclusive\b`, CaptureNone, "SAR 5,750 VAT inclusive"),
	newRule("inclusive_of_vat", `\binclusive\s+of\s+(?:the\s+)?(?:applicable\s+)?VAT\b`, CaptureNone, "Prices inclusive of applicable VAT"),
	newRule("inclusive_vat", `\binclusive\s+VAT\b`, CaptureNone, "Inclusive VAT"),
	newRule("vat_included", `\bVAT\s+(?:is\s+)?included\b`, CaptureNone, "VAT included"),
	newRule("included_vat", `\bincluded\s+VAT\b`, CaptureNone, "Included VAT"),
	newRule("incl_vat", `\bincl(?:\.\s*|\s+)VAT\b`, CaptureNone, "SAR 5,750 incl. VAT"),
	newRule("including_vat", `\bincluding\s+VAT\b`, CaptureNone, "Premium including VAT"),
	newRule("includes_vat", `\bincludes\s+(?:the\s+)?VAT\b`, CaptureNone, "Price includes VAT"),
	newRule("vat_incl", `\bVAT\s+incl\b`, CaptureNone, "Amount VAT incl."),
	newRule("vat_inc", `\bVAT\s+inc\b`, CaptureNone, "SAR 5,750 VAT inc"),
	newRule("inc_vat", `\binc(?:\.\s*|\s+)VAT\b`, CaptureNone, "SAR 5,750 inc. VAT"),
	newRule("incl_tax", `\bincl(?:\.\s*|\s+)tax(?:es)?\b`, CaptureNone, "Premium incl. tax"),
	newRule("including_tax", `\bincluding\s+(?:all\s+)?tax(?:es)?\b`, CaptureNone, "Total including all taxes"),
	newRule("tax_included", `\btax(?:es)?\s+(?:are\s+|is\s+)?included\b`, CaptureNone, "Taxes included"),
	newRule("inclusive_of_taxes", `\binclusive\s+of\s+(?:all\s+)?tax(?:es)?\b`, CaptureNone, "Inclusive of all taxes"),
	newRule("vat_inclusive_ar", `شامل(?:ة)?\s+(?:ل)?`+reVATAr, CaptureNone, "شامل ضريبة القيمة المضافة"),
	newRule("premium_with_vat", `\bpremium\s+with\s+VAT\b`, CaptureNone, "Premium with VAT"),
	newRule("total_with_vat", `\btotal\s+(?:amount\s+|payable\s+)?with\s+VAT\b`, CaptureNone, "Total with VAT"),
	newRule("with_vat", `\bwith\s+VAT\b`, CaptureNone, "Price with VAT"),
}

// genericRules are bare mentions with no direction
var genericRules = []Rule{
	newRule("vat_registration", `\bVAT\s*(?:registration|reg\.?)\s*(?:no\.?|number)?`, CaptureNone, "VAT Reg. No. 300012345600003"),
	newRule("vat", `\bVAT\b`, CaptureNone, "VAT"),
	newRule("value_added_tax", `\bvalue[\s-]+added[\s-]+tax\b`, CaptureNone, "Value Added Tax"),
	newRule("v_a_t", `\bV\s*\.\s*A\s*\.\s*T\b\.?`, CaptureNone, "V.A.T."),
	newRule("vat_ar", reVATAr, CaptureNone, "ضريبة القيمة المضافة"),
}

// RateRules returns a copy of the rate table
func RateRules() []Rule { return slices.Clone(rateRules) }

// ExclusiveRules returns a copy of the exclusive table
func ExclusiveRules() []Rule { return slices.Clone(exclusiveRules) }

// InclusiveRules returns a copy of the inclusive table
func InclusiveRules() []Rule { return slices.Clone(inclusiveRules) }

// GenericRules returns a copy of the generic mention table
func GenericRules() []Rule { return slices.Clone(genericRules) }

// firstMatch returns the first rule in table order that matches text
func firstMatch(rules []Rule, text string) (Rule, bool) {
	for _, r := range rules {
		if r.Match(text) {
			return r, true
		}
	}
	return Rule{}, false
}
