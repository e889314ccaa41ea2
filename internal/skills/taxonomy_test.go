package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// CANONICAL TESTS
// ==========================

func TestCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Python", "python"},
		{"trims whitespace", "  React  ", "react"},
		{"mixed case and spaces", "  Machine Learning ", "machine learning"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Canonical(tt.input))
		})
	}
}

// ==========================
// CATEGORY COUNT TESTS
// ==========================

func TestCategoryCounts(t *testing.T) {
	tax := New()

	counts := tax.CategoryCounts([]string{"Python", "Figma", "SQL", "SEO"})

	assert.Equal(t, float64(1), counts[CategoryTechnical])
	assert.Equal(t, float64(1), counts[CategoryDesign])
	assert.Equal(t, float64(1), counts[CategoryMarketing])
	assert.Equal(t, float64(1), counts[CategoryData])
	assert.Equal(t, float64(0), counts[CategoryBusiness])
}

func TestCategoryCounts_AllCategoriesPresent(t *testing.T) {
	tax := New()

	counts := tax.CategoryCounts(nil)

	assert.Len(t, counts, len(Categories))
	for _, cat := range Categories {
		assert.Contains(t, counts, cat)
	}
}

func TestCategoryCounts_MultiCategorySkill(t *testing.T) {
	tax := New()

	// "ai" matches the data category keyword list.
	counts := tax.CategoryCounts([]string{"AI"})

	assert.Equal(t, float64(1), counts[CategoryData])
}

// ==========================
// CITY TIER TESTS
// ==========================

func TestCityTier(t *testing.T) {
	tax := New()

	tests := []struct {
		name     string
		city     string
		expected float64
	}{
		{"tier 1 metro", "Mumbai", 1},
		{"tier 1 alternate spelling", "Bengaluru", 1},
		{"tier 2 city", "Jaipur", 2},
		{"unknown small town", "Alibag", 3},
		{"empty city defaults to tier 2", "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tax.CityTier(tt.city))
		})
	}
}

// ==========================
// ORDINAL TESTS
// ==========================

func TestSectorOrdinal(t *testing.T) {
	tax := New()

	assert.Equal(t, float64(2), tax.SectorOrdinal("Technology"))
	assert.Equal(t, float64(3), tax.SectorOrdinal("finance"))
	assert.Equal(t, float64(1), tax.SectorOrdinal("unknown-sector"))
}

func TestEducationOrdinal(t *testing.T) {
	tax := New()

	assert.Equal(t, float64(1), tax.EducationOrdinal("10th"))
	assert.Equal(t, float64(4), tax.EducationOrdinal("UG"))
	assert.Equal(t, float64(5), tax.EducationOrdinal("PhD"))
	assert.Equal(t, float64(0), tax.EducationOrdinal("bootcamp"))
}

// ==========================
// FIELD MATCH TESTS
// ==========================

func TestFieldMatchesSector(t *testing.T) {
	tax := New()

	assert.True(t, tax.FieldMatchesSector("Computer Science", "technology"))
	assert.True(t, tax.FieldMatchesSector("Commerce", "finance"))
	assert.False(t, tax.FieldMatchesSector("History", "technology"))
	assert.False(t, tax.FieldMatchesSector("", "technology"))
}

// ==========================
// RELOAD TESTS
// ==========================

func TestReload_ReturnsFreshValue(t *testing.T) {
	tax := New()
	fresh := tax.Reload()

	assert.NotSame(t, tax, fresh)
	assert.Equal(t, tax.SectorOrdinal("technology"), fresh.SectorOrdinal("technology"))
}
