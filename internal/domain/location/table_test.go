package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDefaultTable_Known tests area membership in the reference data
func TestDefaultTable_Known(t *testing.T) {
	table := DefaultTable()

	assert.True(t, table.Known("Ikeja"))
	assert.True(t, table.Known("VI"))
	assert.False(t, table.Known("Atlantis"))
	assert.False(t, table.Known(""))
}

// TestSameDistrict tests narrow district grouping
func TestSameDistrict(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"Same western mainland group", "Ogba", "Ikeja", true},
		{"Same southern island group", "VI", "Lekki", true},
		{"Same area is trivially same district", "Yaba", "Yaba", true},
		{"Different districts same region", "Ikeja", "Yaba", false},
		{"Across regions", "Ikeja", "VI", false},
		{"Unknown area", "Ikeja", "Atlantis", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, table.SameDistrict(tt.a, tt.b))
		})
	}
}

// TestAdjacent_Symmetric tests that adjacency holds in both directions
func TestAdjacent_Symmetric(t *testing.T) {
	table := DefaultTable()

	// Festac lists Oshodi but Oshodi's own list omits Festac; the table
	// must still answer true both ways.
	assert.True(t, table.Adjacent("Festac", "Oshodi"))
	assert.True(t, table.Adjacent("Oshodi", "Festac"))

	assert.True(t, table.Adjacent("VI", "Lekki"))
	assert.True(t, table.Adjacent("Lekki", "VI"))

	assert.False(t, table.Adjacent("Ogba", "VI"))
	assert.False(t, table.Adjacent("Ajah", "Marina"))
}

// TestSameRegion tests broad region matching
func TestSameRegion(t *testing.T) {
	table := DefaultTable()

	assert.True(t, table.SameRegion("Ogba", "Festac"), "Both mainland")
	assert.True(t, table.SameRegion("Ajah", "Marina"), "Both island")
	assert.False(t, table.SameRegion("Ikeja", "Lekki"), "Across regions")
	assert.False(t, table.SameRegion("Ikeja", "Atlantis"), "Unknown never matches")
	assert.False(t, table.SameRegion("Atlantis", "Atlantis"), "Unknown never matches even itself")
}
