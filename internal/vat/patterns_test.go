package vat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/quote-vat/internal/vat"
)

func TestTables_Sizes(t *testing.T) {
	assert.Len(t, vat.RateRules(), 4)
	assert.GreaterOrEqual(t, len(vat.ExclusiveRules()), 55)
	assert.GreaterOrEqual(t, len(vat.InclusiveRules()), 20)
	assert.Len(t, vat.GenericRules(), 5)
}

func TestTables_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, table := range [][]vat.Rule{vat.RateRules(), vat.ExclusiveRules(), vat.InclusiveRules(), vat.GenericRules()} {
		for _, r := range table {
			assert.False(t, seen[r.Name], "duplicate rule name %s", r.Name)
			seen[r.Name] = true
		}
	}
}

func TestTables_ReturnCopies(t *testing.T) {
	rules := vat.ExclusiveRules()
	first := rules[0]
	rules[0] = vat.Rule{Name: "mutated"}

	assert.Equal(t, first.Name, vat.ExclusiveRules()[0].Name)
}

func TestRateRules_Examples(t *testing.T) {
	for _, r := range vat.RateRules() {
		t.Run(r.Name, func(t *testing.T) {
			assert.Equal(t, vat.CaptureRate, r.Captures)
			assert.NotEmpty(t, r.Submatches(vat.Normalize(r.Example)))

			v := vat.RateViolation(r.Example)
			require.NotNil(t, v)
			assert.Equal(t, vat.ClassP6, v.Class)
		})
	}
}

func TestExclusiveRules_Examples(t *testing.T) {
	for _, r := range vat.ExclusiveRules() {
		t.Run(r.Name, func(t *testing.T) {
			require.True(t, r.Match(vat.Normalize(r.Example)), "rule does not match its example %q", r.Example)

			c, err := vat.Classify(r.Example, premium(5000))
			require.NoError(t, err)
			assert.Equal(t, vat.ClassP2, c.Class)
			assert.Equal(t, vat.ConfidenceHigh, c.Confidence)

			if r.Captures == vat.CaptureAmount {
				assert.NotEmpty(t, r.Submatches(vat.Normalize(r.Example)))
			}
		})
	}
}

func TestInclusiveRules_Examples(t *testing.T) {
	for _, r := range vat.InclusiveRules() {
		t.Run(r.Name, func(t *testing.T) {
			require.True(t, r.Match(vat.Normalize(r.Example)), "rule does not match its example %q", r.Example)

			c, err := vat.Classify(r.Example, premium(5000))
			require.NoError(t, err)
			assert.Equal(t, vat.ClassP1, c.Class)
		})
	}
}

func TestGenericRules_Examples(t *testing.T) {
	for _, r := range vat.GenericRules() {
		t.Run(r.Name, func(t *testing.T) {
			require.True(t, r.Match(vat.Normalize(r.Example)), "rule does not match its example %q", r.Example)

			c, err := vat.Classify(r.Example, premium(5000))
			require.NoError(t, err)
			assert.Equal(t, vat.ClassP2, c.Class)
			assert.Equal(t, vat.ConfidenceMedium, c.Confidence)
			assert.True(t, c.IsAssumed)
		})
	}
}

func TestRule_SubmatchesSkipsPercent(t *testing.T) {
	r := ruleByName(t, vat.ExclusiveRules(), "vat_amount")
	assert.Empty(t, r.Submatches("VAT amount 15%"))
	assert.Equal(t, []string{"820"}, r.Submatches("VAT amount 820"))
}

func TestRule_FalsePositives(t *testing.T) {
	tests := []struct {
		table string
		name  string
		text  string
	}{
		{"exclusive", "ex_vat", "Annex VAT schedule"},
		{"exclusive", "excl_vat", "Incl. VAT"},
		{"exclusive", "exclusive_of_vat", "inclusive of VAT"},
		{"inclusive", "vat_inc", "VAT increase"},
		{"generic", "vat", "ELEVATOR coverage"},
	}

	tables := map[string][]vat.Rule{
		"exclusive": vat.ExclusiveRules(),
		"inclusive": vat.InclusiveRules(),
		"generic":   vat.GenericRules(),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ruleByName(t, tables[tt.table], tt.name)
			assert.False(t, r.Match(tt.text), "%s should not match %q", tt.name, tt.text)
		})
	}
}
