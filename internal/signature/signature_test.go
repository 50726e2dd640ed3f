package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_ExtraColumns(t *testing.T) {
	header := []string{"Match Name", "Chromosome", "Start Location", "End Location", "Centimorgans", "Matching SNPs"}
	sig, ok := Segments.Match(header)
	require.True(t, ok)
	assert.Equal(t, "FTDNA1", sig.Name)
	assert.Equal(t, []int{1, 2, 3}, sig.Indices(header))
}

func TestMatch_ColumnOrderIrrelevant(t *testing.T) {
	header := []string{"End", "Chr", "cM", "Start"}
	sig, ok := Segments.Match(header)
	require.True(t, ok)
	assert.Equal(t, "Gedmatch1", sig.Name)
	assert.Equal(t, []int{1, 3, 0}, sig.Indices(header))
}

func TestMatch_FirstWins(t *testing.T) {
	// Satisfies both Gedmatch1 and Gedmatch2; table order decides.
	header := []string{"Chr", "Start", "End", "Start Position", "End Position"}
	sig, ok := Segments.Match(header)
	require.True(t, ok)
	assert.Equal(t, "Gedmatch1", sig.Name)
}

func TestMatch_LeadingSpaces(t *testing.T) {
	sig, ok := Segments.Match([]string{"Kit", " chr", " start", " end", " cM"})
	require.True(t, ok)
	assert.Equal(t, "Gedmatch6", sig.Name)
}

func TestMatch_NoMatch(t *testing.T) {
	_, ok := Segments.Match([]string{"Chromosome", "Start Location"})
	assert.False(t, ok)
}

func TestIndices_Missing(t *testing.T) {
	sig := Signature{Name: "x", Columns: []string{"a", "b"}}
	assert.Equal(t, []int{0, -1}, sig.Indices([]string{"a", "c"}))
}

func TestBuiltinTablesValid(t *testing.T) {
	require.NoError(t, Segments.Validate(3))
	require.NoError(t, Kits4.Validate(4))
	require.NoError(t, Kits5.Validate(5))
	require.NoError(t, FTDNAMatches.Validate(0))
	require.NoError(t, KitOwners.Validate(4))
}

func TestValidate_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  int
	}{
		{"empty name", Table{{Columns: []string{"a"}}}, 0},
		{"no columns", Table{{Name: "a"}}, 0},
		{"wrong width", Table{{Name: "a", Columns: []string{"x", "y"}}}, 3},
		{"duplicate column", Table{{Name: "a", Columns: []string{"x", "x", "y"}}}, 3},
		{"duplicate name", Table{{Name: "a", Columns: []string{"x"}}, {Name: "a", Columns: []string{"y"}}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.table.Validate(tt.want))
		})
	}
}
