// internal/skills/taxonomy.go
package skills

import "strings"

// Skill categories used by feature extraction. Order is fixed; feature
// vector positions depend on it.
const (
	CategoryTechnical = "technical"
	CategoryDesign    = "design"
	CategoryMarketing = "marketing"
	CategoryBusiness  = "business"
	CategoryData      = "data"
)

// Categories lists the fixed skill categories in vector order.
var Categories = []string{
	CategoryTechnical,
	CategoryDesign,
	CategoryMarketing,
	CategoryBusiness,
	CategoryData,
}

// Taxonomy is an immutable set of lookup tables built once at startup and
// passed by reference. Reload builds a fresh value; callers swap the pointer.
type Taxonomy struct {
	categoryKeywords map[string][]string
	tier1Cities      map[string]bool
	tier2Cities      map[string]bool
	sectorOrdinals   map[string]float64
	sectorFields     map[string][]string
	educationLevels  map[string]float64
}

// New builds the default taxonomy.
func New() *Taxonomy {
	return &Taxonomy{
		categoryKeywords: map[string][]string{
			CategoryTechnical: {
				"programming", "software", "developer", "javascript", "python",
				"java", "react", "node", "html", "css", "golang", "c++",
				"android", "backend", "frontend", "fullstack", "devops", "api",
			},
			CategoryDesign: {
				"design", "figma", "photoshop", "illustrator", "ui", "ux",
				"graphic", "sketch", "canva", "video editing", "animation",
			},
			CategoryMarketing: {
				"marketing", "seo", "social media", "content", "copywriting",
				"advertising", "branding", "campaign", "email marketing",
			},
			CategoryBusiness: {
				"management", "sales", "finance", "accounting", "operations",
				"hr", "business", "strategy", "consulting", "excel",
			},
			CategoryData: {
				"data", "analytics", "sql", "machine learning", "statistics",
				"tableau", "power bi", "pandas", "visualization", "ai",
			},
		},
		tier1Cities: toSet(
			"mumbai", "delhi", "bangalore", "bengaluru", "hyderabad",
			"chennai", "kolkata", "pune", "ahmedabad",
		),
		tier2Cities: toSet(
			"jaipur", "lucknow", "nagpur", "indore", "bhopal", "surat",
			"kanpur", "patna", "vadodara", "coimbatore", "kochi",
			"visakhapatnam", "chandigarh", "nashik",
		),
		sectorOrdinals: map[string]float64{
			"technology":    2,
			"it":            2,
			"finance":       3,
			"banking":       3,
			"healthcare":    4,
			"education":     5,
			"manufacturing": 6,
			"retail":        7,
			"media":         8,
			"agriculture":   9,
			"government":    10,
		},
		sectorFields: map[string][]string{
			"technology":    {"computer", "information", "electronics", "engineering"},
			"it":            {"computer", "information", "electronics", "engineering"},
			"finance":       {"commerce", "finance", "economics", "accounting"},
			"banking":       {"commerce", "finance", "economics", "accounting"},
			"healthcare":    {"biology", "medicine", "pharmacy", "nursing"},
			"education":     {"education", "arts", "science"},
			"manufacturing": {"mechanical", "electrical", "industrial", "engineering"},
			"media":         {"journalism", "communication", "media", "arts"},
		},
		educationLevels: map[string]float64{
			"10th":    1,
			"12th":    2,
			"diploma": 3,
			"ug":      4,
			"pg":      5,
			"phd":     5, // same band as PG; ordinal scale is 1-5
		},
	}
}

// Reload returns a freshly built taxonomy. Exists so callers replace the
// shared pointer explicitly instead of relying on hidden first-call init.
func (t *Taxonomy) Reload() *Taxonomy {
	return New()
}

// Canonical normalizes a skill name for exact-match comparison.
func Canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CategoryCounts counts how many of the given canonical skill names fall in
// each fixed category, by case-insensitive substring containment against the
// category keyword lists. A skill may count toward several categories.
func (t *Taxonomy) CategoryCounts(skillNames []string) map[string]float64 {
	counts := make(map[string]float64, len(Categories))
	for _, cat := range Categories {
		counts[cat] = 0
	}
	for _, raw := range skillNames {
		name := Canonical(raw)
		if name == "" {
			continue
		}
		for _, cat := range Categories {
			for _, kw := range t.categoryKeywords[cat] {
				if strings.Contains(name, kw) || strings.Contains(kw, name) {
					counts[cat]++
					break
				}
			}
		}
	}
	return counts
}

// CityTier returns 1, 2 or 3 for the given city name. A missing city is
// neutral tier 2; a city outside both lookup sets is tier 3.
func (t *Taxonomy) CityTier(city string) float64 {
	c := strings.ToLower(strings.TrimSpace(city))
	if c == "" {
		return 2
	}
	if t.tier1Cities[c] {
		return 1
	}
	if t.tier2Cities[c] {
		return 2
	}
	return 3
}

// SectorOrdinal returns the fixed ordinal for a sector, defaulting to 1.
func (t *Taxonomy) SectorOrdinal(sector string) float64 {
	if v, ok := t.sectorOrdinals[strings.ToLower(strings.TrimSpace(sector))]; ok {
		return v
	}
	return 1
}

// EducationOrdinal maps an education level to its 1-5 ordinal, 0 if unknown.
func (t *Taxonomy) EducationOrdinal(level string) float64 {
	if v, ok := t.educationLevels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return v
	}
	return 0
}

// FieldMatchesSector reports whether an education field is relevant to the
// given sector per the fixed keyword lists.
func (t *Taxonomy) FieldMatchesSector(field, sector string) bool {
	f := strings.ToLower(strings.TrimSpace(field))
	if f == "" {
		return false
	}
	for _, kw := range t.sectorFields[strings.ToLower(strings.TrimSpace(sector))] {
		if strings.Contains(f, kw) {
			return true
		}
	}
	return false
}

func toSet(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
