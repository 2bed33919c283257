package vat_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/quote-vat/internal/vat"
)

func TestComparisonPremium(t *testing.T) {
	t.Run("inclusive used as-is", func(t *testing.T) {
		c, err := vat.Classify("Total Premium with VAT included: SAR 5,750", premium(5750))
		require.NoError(t, err)
		assert.True(t, vat.ComparisonPremium(c, decimal.NewFromInt(5750)).Equal(decimal.NewFromInt(5750)))
	})

	t.Run("exclusive adds VAT", func(t *testing.T) {
		c, err := vat.Classify("Premium: SAR 5,000. Plus VAT as applicable.", premium(5000))
		require.NoError(t, err)
		assert.True(t, vat.ComparisonPremium(c, decimal.NewFromInt(5000)).Equal(decimal.NewFromInt(5750)))
	})

	t.Run("exclusive with extracted amount", func(t *testing.T) {
		c, err := vat.Classify("Premium SAR 5,000 plus VAT. VAT: SAR 760", premium(5000))
		require.NoError(t, err)
		assert.True(t, vat.ComparisonPremium(c, decimal.NewFromInt(5000)).Equal(decimal.NewFromInt(5760)))
	})

	t.Run("exclusive without amount computes standard", func(t *testing.T) {
		c, err := vat.Classify("Premium plus VAT", vat.Hints{})
		require.NoError(t, err)
		require.False(t, c.VATAmount.Valid)
		assert.True(t, vat.ComparisonPremium(c, decimal.NewFromInt(5000)).Equal(decimal.NewFromInt(5750)))
	})

	t.Run("nil classification", func(t *testing.T) {
		assert.True(t, vat.ComparisonPremium(nil, decimal.NewFromInt(10)).Equal(decimal.NewFromInt(10)))
	})
}

func TestComparisonPremium_ProvidersConverge(t *testing.T) {
	inclusive, err := vat.Classify("SAR 5,750 VAT inclusive", premium(5750))
	require.NoError(t, err)
	exclusive, err := vat.Classify("SAR 5,000 exclusive of VAT", premium(5000))
	require.NoError(t, err)

	a := vat.ComparisonPremium(inclusive, decimal.NewFromInt(5750))
	b := vat.ComparisonPremium(exclusive, decimal.NewFromInt(5000))
	assert.True(t, a.Equal(b), "%s != %s", a, b)
}

func TestTotalAnnualCost(t *testing.T) {
	exclusive, err := vat.Classify("Premium: SAR 5,000. Plus VAT as applicable.", premium(5000))
	require.NoError(t, err)
	inclusive, err := vat.Classify("Premium SAR 5,750 inclusive of VAT", premium(5750))
	require.NoError(t, err)

	tests := []struct {
		name     string
		c        *vat.Classification
		stated   int64
		fee      decimal.NullDecimal
		expected string
	}{
		{"exclusive with fee", exclusive, 5000, nd("150"), "5900"},
		{"exclusive without fee", exclusive, 5000, decimal.NullDecimal{}, "5750"},
		{"inclusive with fee", inclusive, 5750, nd("150.5"), "5900.5"},
		{"inclusive without fee", inclusive, 5750, decimal.NullDecimal{}, "5750"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := vat.TotalAnnualCost(tt.c, decimal.NewFromInt(tt.stated), tt.fee)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
				"got %s, want %s", got.String(), tt.expected)
		})
	}
}
