package vat_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/quote-vat/internal/vat"
)

func premium(v int64) vat.Hints {
	return vat.Hints{Premium: decimal.NewNullDecimal(decimal.NewFromInt(v))}
}

func ruleByName(t *testing.T, rules []vat.Rule, name string) vat.Rule {
	t.Helper()
	for _, r := range rules {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %q not found", name)
	return vat.Rule{}
}

func assertDecimal(t *testing.T, expected string, actual decimal.NullDecimal) {
	t.Helper()
	require.True(t, actual.Valid, "expected %s, got null", expected)
	assert.True(t, actual.Decimal.Equal(decimal.RequireFromString(expected)),
		"expected %s, got %s", expected, actual.Decimal.String())
}

func TestClassify_PlusVATAsApplicable(t *testing.T) {
	c, err := vat.Classify("Premium: SAR 5,000. Plus VAT as applicable.", premium(5000))
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP2, c.Class)
	assertDecimal(t, "15", c.VATPercentage)
	assertDecimal(t, "750", c.VATAmount)
	assert.Equal(t, vat.ConfidenceHigh, c.Confidence)
	assert.False(t, c.IsAssumed)
	assert.Nil(t, c.Warning)
	assert.False(t, c.RequiresVerification)
	assert.Equal(t, vat.DetectionMethod, c.DetectionMethod)
	require.NotNil(t, c.PatternMatched)
	assert.Equal(t, ruleByName(t, vat.ExclusiveRules(), "plus_vat").Pattern, *c.PatternMatched)
}

func TestClassify_TotalPremiumWithVATIncluded(t *testing.T) {
	c, err := vat.Classify("Total Premium with VAT included: SAR 5,750", premium(5750))
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP1, c.Class)
	assert.False(t, c.VATPercentage.Valid)
	assert.False(t, c.VATAmount.Valid)
	assert.Equal(t, vat.ConfidenceHigh, c.Confidence)
	assert.False(t, c.IsAssumed)
	assert.Nil(t, c.Warning)
	require.NotNil(t, c.PatternMatched)
	assert.Equal(t, ruleByName(t, vat.InclusiveRules(), "total_premium_with_vat_included").Pattern, *c.PatternMatched)
}

func TestClassify_ZeroVAT(t *testing.T) {
	c, err := vat.Classify("Premium: SAR 5,000. VAT: 0%.", premium(5000))
	require.Error(t, err)
	assert.Nil(t, c)

	v, ok := vat.AsPolicyViolation(err)
	require.True(t, ok)
	assert.Equal(t, vat.ClassP5, v.Class)
	assert.Equal(t, vat.ErrCodeZeroVAT, v.Code)
}

func TestClassify_NonStandardRate(t *testing.T) {
	c, err := vat.Classify("Premium: SAR 5,000 + 69% VAT.", premium(5000))
	require.Error(t, err)
	assert.Nil(t, c)

	v, ok := vat.AsPolicyViolation(err)
	require.True(t, ok)
	assert.Equal(t, vat.ClassP6, v.Class)
	assert.Equal(t, vat.ErrCodeNonStandardRate, v.Code)
	require.NotNil(t, v.Rate())
	assert.Equal(t, 69.0, *v.Rate())
	assert.Contains(t, v.Message, "69%")
}

func TestClassify_NoVATMention(t *testing.T) {
	c, err := vat.Classify("Premium: SAR 5,000.", premium(5000))
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP2, c.Class)
	assertDecimal(t, "15", c.VATPercentage)
	assertDecimal(t, "750", c.VATAmount)
	assert.Equal(t, vat.ConfidenceLow, c.Confidence)
	assert.True(t, c.IsAssumed)
	assert.True(t, c.RequiresVerification)
	require.NotNil(t, c.Warning)
	assert.Equal(t, vat.WarningNoPattern, *c.Warning)
	assert.Nil(t, c.PatternMatched)
}

func TestClassify_GenericMention(t *testing.T) {
	c, err := vat.Classify("VAT", premium(5000))
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP2, c.Class)
	assert.Equal(t, vat.ConfidenceMedium, c.Confidence)
	assert.True(t, c.IsAssumed)
	assert.False(t, c.RequiresVerification)
	assertDecimal(t, "750", c.VATAmount)
	require.NotNil(t, c.Warning)
	assert.Equal(t, vat.WarningGenericMention, *c.Warning)
}

func TestClassify_ExclusiveBeatsInclusive(t *testing.T) {
	text := "Premium SAR 5,000 exclusive of VAT.\nTotal SAR 5,750 inclusive of VAT."
	c, err := vat.Classify(text, premium(5000))
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP2, c.Class)
	assert.Equal(t, vat.ConfidenceHigh, c.Confidence)
	assert.False(t, c.IsAssumed)
	require.NotNil(t, c.Warning)
	assert.Equal(t, vat.WarningAmbiguous, *c.Warning)
}

func TestClassify_NegatedInclusiveIsNotAmbiguous(t *testing.T) {
	c, err := vat.Classify("Premium SAR 5,000 is not inclusive of VAT.", premium(5000))
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP2, c.Class)
	assert.Nil(t, c.Warning)
	require.NotNil(t, c.PatternMatched)
	assert.Equal(t, ruleByName(t, vat.ExclusiveRules(), "not_inclusive_of_vat").Pattern, *c.PatternMatched)
}

func TestClassify_InvalidRateBeatsInclusivePhrase(t *testing.T) {
	_, err := vat.Classify("Premium SAR 5,750 inclusive of VAT 5%", premium(5750))

	v, ok := vat.AsPolicyViolation(err)
	require.True(t, ok)
	assert.Equal(t, vat.ClassP6, v.Class)
	assert.Equal(t, 5.0, *v.Rate())
}

func TestClassify_ZeroRates(t *testing.T) {
	for _, text := range []string{
		"VAT 0%",
		"VAT: 0.0%",
		"0.00% VAT",
		"VAT rate: 0 %",
		"Value Added Tax (0%)",
		"VAT | 0%",
		"Premium SAR 5,000 inclusive of VAT. VAT @ 0%",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := vat.Classify(text, premium(5000))
			v, ok := vat.AsPolicyViolation(err)
			require.True(t, ok, "expected policy violation, got %v", err)
			assert.Equal(t, vat.ClassP5, v.Class)
		})
	}
}

func TestClassify_NonStandardRates(t *testing.T) {
	tests := []struct {
		text string
		rate string
	}{
		{"VAT: 20%", "20"},
		{"VAT 5 %", "5"},
		{"VAT (69 %)", "69"},
		{"VAT Rate: 10%", "10"},
		{"VAT Percentage: 69%", "69"},
		{"1,500 + 69.5% VAT", "69.5"},
		{"SAR 1,500 + VAT 69%", "69"},
		{"VAT is charged at the rate of 5 percent", "5"},
		{"value added tax rate 12.5%", "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := vat.Classify(tt.text, premium(1500))
			v, ok := vat.AsPolicyViolation(err)
			require.True(t, ok, "expected policy violation, got %v", err)
			assert.Equal(t, vat.ClassP6, v.Class)
			require.True(t, v.DetectedRate.Valid)
			assert.True(t, v.DetectedRate.Decimal.Equal(decimal.RequireFromString(tt.rate)),
				"got rate %s, want %s", v.DetectedRate.Decimal.String(), tt.rate)
		})
	}
}

func TestClassify_StandardRateSpellings(t *testing.T) {
	for _, text := range []string{"VAT 15%", "VAT 15.0%", "15.00% VAT", "VAT @ 15 %", "Value Added Tax (15%)"} {
		t.Run(text, func(t *testing.T) {
			c, err := vat.Classify(text, premium(1000))
			require.NoError(t, err)
			assert.Equal(t, vat.ClassP2, c.Class)
			assert.Equal(t, vat.ConfidenceHigh, c.Confidence)
			assertDecimal(t, "150", c.VATAmount)
		})
	}
}

func TestClassify_ExtractedAmountWins(t *testing.T) {
	text := "Net premium SAR 5,000 plus VAT.\nVAT (15%): SAR 760.50"
	c, err := vat.Classify(text, premium(5000))
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP2, c.Class)
	assertDecimal(t, "760.5", c.VATAmount)
}

func TestClassify_MalformedAmountFallsBack(t *testing.T) {
	c, err := vat.Classify("Premium SAR 5,000. VAT: SAR 0", premium(5000))
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP2, c.Class)
	assertDecimal(t, "750", c.VATAmount)
}

func TestClassify_ComputedAmountRounding(t *testing.T) {
	hints := vat.Hints{Premium: decimal.NewNullDecimal(decimal.RequireFromString("21689.38"))}
	c, err := vat.Classify("Premium plus VAT", hints)
	require.NoError(t, err)
	assertDecimal(t, "3253.41", c.VATAmount)
}

func TestClassify_NoPremium(t *testing.T) {
	c, err := vat.Classify("Premium plus VAT", vat.Hints{})
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP2, c.Class)
	assertDecimal(t, "15", c.VATPercentage)
	assert.False(t, c.VATAmount.Valid)
}

func TestClassify_HintedAmount(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		hinted   int64
		expected string
	}{
		{"stated as VAT amount", "Premium SAR 5,000 plus VAT. VAT: SAR 740", 740, "740"},
		{"unlabelled figure", "Premium SAR 5,000 plus VAT. Tax due 740", 740, "750"},
		{"equals the premium", "Premium: SAR 5,000. Plus VAT as applicable.", 5000, "750"},
		{"equals a year", "Premium SAR 5,000 plus VAT, valid until 2025", 2025, "750"},
		{"hallucinated", "Premium SAR 5,000 plus VAT", 999, "750"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints := premium(5000)
			hints.VATAmount = decimal.NewNullDecimal(decimal.NewFromInt(tt.hinted))

			c, err := vat.Classify(tt.text, hints)
			require.NoError(t, err)
			assert.Equal(t, vat.ClassP2, c.Class)
			assertDecimal(t, tt.expected, c.VATAmount)

			comparison := vat.ComparisonPremium(c, decimal.NewFromInt(5000))
			assert.True(t, comparison.Equal(decimal.NewFromInt(5000).Add(c.VATAmount.Decimal)))
		})
	}
}

func TestClassify_HintedRateCannotTriggerViolation(t *testing.T) {
	hints := premium(5000)
	hints.VATPercentage = decimal.NewNullDecimal(decimal.NewFromInt(5))

	c, err := vat.Classify("Premium SAR 5,000 plus VAT", hints)
	require.NoError(t, err)
	assert.Equal(t, vat.ClassP2, c.Class)
	assertDecimal(t, "15", c.VATPercentage)
}

func TestClassify_WhitespaceTolerance(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected vat.Class
	}{
		{"line wrap", "Premium\nplus\n\nVAT", vat.ClassP2},
		{"non-breaking space", "Premium\u00a0plus\u00a0VAT", vat.ClassP2},
		{"tabs", "VAT\t\tinclusive", vat.ClassP1},
		{"wrapped inclusive", "Total Premium with\r\n VAT\n included", vat.ClassP1},
		{"mixed case", "vAt InClUdEd", vat.ClassP1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := vat.Classify(tt.text, premium(1000))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c.Class)
		})
	}
}

func TestClassify_LateDisclosure(t *testing.T) {
	text := strings.Repeat("Coverage details and terms of the policy. ", 5000) + "All amounts are VAT inclusive."
	c, err := vat.Classify(text, premium(5750))
	require.NoError(t, err)
	assert.Equal(t, vat.ClassP1, c.Class)
}

func TestClassify_EmptyText(t *testing.T) {
	c, err := vat.Classify("", vat.Hints{})
	require.NoError(t, err)

	assert.Equal(t, vat.ClassP2, c.Class)
	assert.Equal(t, vat.ConfidenceLow, c.Confidence)
	assert.True(t, c.RequiresVerification)
}

func TestClassify_Idempotent(t *testing.T) {
	for _, text := range sampleDocuments {
		first, err1 := vat.Classify(text, premium(5000))
		second, err2 := vat.Classify(text, premium(5000))
		assert.Equal(t, first, second, text)
		assert.Equal(t, err1, err2, text)
	}
}

func TestClassify_P1NeverCarriesNumbers(t *testing.T) {
	hints := premium(5750)
	hints.VATPercentage = decimal.NewNullDecimal(decimal.NewFromInt(15))
	hints.VATAmount = decimal.NewNullDecimal(decimal.NewFromInt(750))

	for _, r := range vat.InclusiveRules() {
		t.Run(r.Name, func(t *testing.T) {
			c, err := vat.Classify("Quote ref 5,750. "+r.Example, hints)
			require.NoError(t, err)
			require.Equal(t, vat.ClassP1, c.Class)
			assert.False(t, c.VATPercentage.Valid)
			assert.False(t, c.VATAmount.Valid)
		})
	}
}

func TestClassify_RequiresVerificationOnlyWhenLow(t *testing.T) {
	for _, text := range sampleDocuments {
		c, err := vat.Classify(text, premium(5000))
		if err != nil {
			continue
		}
		assert.Equal(t, c.Confidence == vat.ConfidenceLow, c.RequiresVerification, text)
		assert.Equal(t, c.IsAssumed || (c.Warning != nil && *c.Warning == vat.WarningAmbiguous), c.Warning != nil, text)
	}
}

func TestClassify_Concurrent(t *testing.T) {
	type outcome struct {
		c   *vat.Classification
		err error
	}

	expected := make([]outcome, len(sampleDocuments))
	for i, text := range sampleDocuments {
		c, err := vat.Classify(text, premium(5000))
		expected[i] = outcome{c, err}
	}

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, text := range sampleDocuments {
				c, err := vat.Classify(text, premium(5000))
				assert.Equal(t, expected[i].c, c)
				assert.Equal(t, expected[i].err, err)
				if c != nil && c.Class == vat.ClassP1 {
					assert.False(t, c.VATAmount.Valid)
				}
			}
		}()
	}
	wg.Wait()
}

func TestRateViolation(t *testing.T) {
	assert.Nil(t, vat.RateViolation("Premium SAR 5,000 plus VAT 15%"))
	assert.Nil(t, vat.RateViolation("no rates here"))

	t.Run("zero wins over earlier non-standard", func(t *testing.T) {
		v := vat.RateViolation("VAT 5% on fees. VAT 0% on premium.")
		require.NotNil(t, v)
		assert.Equal(t, vat.ClassP5, v.Class)
	})

	t.Run("first non-standard in table order", func(t *testing.T) {
		v := vat.RateViolation("20% VAT on fees, VAT 5% on premium")
		require.NotNil(t, v)
		assert.Equal(t, vat.ClassP6, v.Class)
		assert.Equal(t, 5.0, *v.Rate())
		assert.Equal(t, ruleByName(t, vat.RateRules(), "vat_rate").Pattern, v.Pattern)
	})

	t.Run("percent inside larger number", func(t *testing.T) {
		assert.Nil(t, vat.RateViolation("VAT 1,500 SAR; 115 is not a rate"))
	})
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"VAT: SAR 750", "750"},
		{"VAT Amount (15%): SR 1,500.50", "1500.5"},
		{"VAT 1,500 SAR", "1500"},
		{"VAT Amount: 820", "820"},
		{"Value Added Tax: SAR 3,253.41", "3253.41"},
		{"SAR 750 towards VAT", "750"},
		{"VAT: SAR 0 then VAT amount 15% then VAT: SAR 900", "900"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assertDecimal(t, tt.expected, vat.ExtractAmount(tt.text))
		})
	}

	assert.False(t, vat.ExtractAmount("Premium plus VAT").Valid)
	assert.False(t, vat.ExtractAmount("VAT: SAR ,").Valid)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "VAT inclusive premium", vat.Normalize("  VAT\u00a0\u00a0inclusive\r\n\tpremium \n"))
	assert.Equal(t, "", vat.Normalize(" \n\t "))

	once := vat.Normalize("a \n b")
	assert.Equal(t, once, vat.Normalize(once))
}

var sampleDocuments = []string{
	"Premium: SAR 5,000. Plus VAT as applicable.",
	"Total Premium with VAT included: SAR 5,750",
	"Premium: SAR 5,000. VAT: 0%.",
	"Premium: SAR 5,000 + 69% VAT.",
	"Premium: SAR 5,000.",
	"VAT",
	"Premium SAR 5,000 exclusive of VAT. Total SAR 5,750 inclusive of VAT.",
	"VAT (15%): SAR 750",
	"Value Added Tax registration 300012345600003",
	"شامل ضريبة القيمة المضافة",
	"Taxes as per law",
	"",
}

func BenchmarkClassify(b *testing.B) {
	text := strings.Repeat("Coverage details and terms of the policy. ", 500) +
		fmt.Sprintf("Premium: SAR %s. VAT as applicable.", "5,000")
	hints := premium(5000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = vat.Classify(text, hints)
	}
}
