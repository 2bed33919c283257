package processor

import (
	"regexp"
	"strings"
)

// Canonical insurer names
const (
	InsurerLiva     = "Liva Insurance"
	InsurerTawuniya = "Tawuniya"
	InsurerChubb    = "Chubb Arabia"
	InsurerGIG      = "Gulf Insurance Group (GIG)"
	InsurerUCA      = "United Cooperative Assurance (UCA)"
)

// insurerHeadLength is how much of the document header is scanned
const insurerHeadLength = 1000

type insurerMarker struct {
	name    string
	pattern *regexp.Regexp
	// window limits the scan to the document head; 0 scans everything
	window int
	// aliases are accepted as the same insurer when comparing names
	aliases []string
}

var insurerMarkers = []insurerMarker{
	{InsurerLiva, regexp.MustCompile(`(?i)\bliva\s+insurance\b`), 0, []string{"liva"}},
	{InsurerLiva, regexp.MustCompile(`(?i)\bliva\b`), insurerHeadLength, []string{"liva"}},
	{InsurerTawuniya, regexp.MustCompile(`(?i)tawuniya`), insurerHeadLength, []string{"tawuniya"}},
	{InsurerChubb, regexp.MustCompile(`(?i)\bchubb\b`), insurerHeadLength, []string{"chubb", "ace arabia"}},
	{InsurerChubb, regexp.MustCompile(`(?i)\bace\s+arabia\b`), 0, []string{"chubb", "ace arabia"}},
	{InsurerGIG, regexp.MustCompile(`(?i)\bgulf\s+insurance\b`), insurerHeadLength, []string{"gig", "gulf insurance"}},
	{InsurerGIG, regexp.MustCompile(`(?i)\bgig\b`), insurerHeadLength / 2, []string{"gig", "gulf insurance"}},
	{InsurerUCA, regexp.MustCompile(`(?i)\bunited\s+cooperative\b`), insurerHeadLength, []string{"uca", "united cooperative"}},
	{InsurerUCA, regexp.MustCompile(`(?i)\buca\b`), insurerHeadLength / 2, []string{"uca", "united cooperative"}},
}

// DetectInsurer identifies the insurer from markers near the top of the
// document. It returns "" when no known insurer is recognised.
func DetectInsurer(text string) string {
	for _, m := range insurerMarkers {
		if m.pattern.MatchString(head(text, m.window)) {
			return m.name
		}
	}
	return ""
}

// ReconcileInsurer prefers the insurer detected in the text over an
// extracted name that does not mention it. The bool reports an override.
func ReconcileInsurer(extracted, text string) (string, bool) {
	detected := DetectInsurer(text)
	if detected == "" {
		return extracted, false
	}
	if extracted == "" {
		return detected, false
	}

	lower := strings.ToLower(extracted)
	for _, m := range insurerMarkers {
		if m.name != detected {
			continue
		}
		for _, alias := range m.aliases {
			if strings.Contains(lower, alias) {
				return extracted, false
			}
		}
	}
	return detected, true
}

// head returns at most n bytes of s without splitting a rune
func head(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
