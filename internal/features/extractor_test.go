package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch-workers/internal/models"
	"internmatch-workers/internal/skills"
)

func testNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testCandidate() *models.CandidateProfile {
	birth := time.Date(2003, 6, 1, 0, 0, 0, 0, time.UTC)
	return &models.CandidateProfile{
		ID:        "cand-1",
		Name:      "Asha",
		BirthDate: &birth,
		Gender:    "female",
		Skills: []models.Skill{
			{DisplayName: "Python", CanonicalName: "python"},
			{DisplayName: "SQL", CanonicalName: "sql"},
		},
		Location:  models.Location{City: "Pune"},
		Education: models.Education{Level: models.EducationUG, Field: "Computer Science", CGPA: 8.2},
		Preferences: models.Preferences{
			WorkType:   models.WorkTypeAny,
			MinStipend: 10000,
			MaxStipend: 25000,
			Sectors:    []string{"technology"},
		},
	}
}

func testOpportunity() *models.Opportunity {
	return &models.Opportunity{
		ID:             "opp-1",
		Title:          "Backend Intern",
		RequiredSkills: []string{"python", "sql"},
		Location:       models.Location{City: "Pune"},
		StipendMonthly: 15000,
		DurationMonths: 6,
		Sector:         "technology",
		CompanySize:    "medium",
		Analytics:      models.OpportunityAnalytics{Applications: 40},
		PostedAt:       testNow().AddDate(0, 0, -7),
		ExpiresAt:      testNow().AddDate(0, 1, 0),
	}
}

// ==========================
// VECTOR ASSEMBLY TESTS
// ==========================

func TestVector_LengthAndOrder(t *testing.T) {
	ex := NewExtractor(skills.New())

	vec := ex.Vector(testCandidate(), testOpportunity(), nil, testNow())

	require.Len(t, vec, VectorLength)
	require.Len(t, Keys, VectorLength)

	// Spot check positions against the documented key order.
	assert.Equal(t, float64(22), vec[0])     // age
	assert.Equal(t, float64(0), vec[1])      // gender (female)
	assert.Equal(t, float64(4), vec[2])      // education_level (UG)
	assert.Equal(t, float64(15000), vec[14]) // stipend
	assert.Equal(t, float64(1), vec[31])     // skill_match
}

func TestVector_NilInputs(t *testing.T) {
	ex := NewExtractor(skills.New())

	assert.Nil(t, ex.Vector(nil, testOpportunity(), nil, testNow()))
	assert.Nil(t, ex.Vector(testCandidate(), nil, nil, testNow()))
}

func TestVector_ZeroFillWithoutApplication(t *testing.T) {
	ex := NewExtractor(skills.New())

	vec := ex.Vector(testCandidate(), testOpportunity(), nil, testNow())

	require.Len(t, vec, VectorLength)
	assert.Equal(t, float64(0), vec[35]) // application_status
	assert.Equal(t, float64(0), vec[36]) // days_since_applied
}

// ==========================
// CANDIDATE FEATURE TESTS
// ==========================

func TestCandidate_Defaults(t *testing.T) {
	ex := NewExtractor(skills.New())

	f := ex.Candidate(&models.CandidateProfile{}, testNow())

	require.NotNil(t, f)
	assert.Equal(t, float64(22), f["age"])
	assert.Equal(t, 0.5, f["gender"])
	assert.Equal(t, float64(0), f["education_level"])
	assert.Equal(t, float64(2), f["location_tier"])
}

func TestCandidate_AgeFromBirthDate(t *testing.T) {
	ex := NewExtractor(skills.New())

	f := ex.Candidate(testCandidate(), testNow())

	assert.Equal(t, float64(22), f["age"])
}

func TestCandidate_SkillCategoryCounts(t *testing.T) {
	ex := NewExtractor(skills.New())

	f := ex.Candidate(testCandidate(), testNow())

	assert.Equal(t, float64(1), f["skill_technical"]) // python
	assert.Equal(t, float64(1), f["skill_data"])      // sql
	assert.Equal(t, float64(0), f["skill_design"])
}

func TestCandidate_RemoteFlexibility(t *testing.T) {
	ex := NewExtractor(skills.New())

	c := testCandidate()
	c.Preferences.WorkType = models.WorkTypeOnsite
	assert.Equal(t, float64(0), ex.Candidate(c, testNow())["remote_flexible"])

	c.Preferences.WorkType = models.WorkTypeRemote
	assert.Equal(t, float64(1), ex.Candidate(c, testNow())["remote_flexible"])
}

func TestCandidate_Completeness(t *testing.T) {
	ex := NewExtractor(skills.New())

	full := ex.Candidate(testCandidate(), testNow())["profile_completeness"]
	empty := ex.Candidate(&models.CandidateProfile{}, testNow())["profile_completeness"]

	assert.Greater(t, full, 0.9)
	assert.Equal(t, float64(0), empty)
}

// ==========================
// OPPORTUNITY FEATURE TESTS
// ==========================

func TestOpportunity_Features(t *testing.T) {
	ex := NewExtractor(skills.New())

	f := ex.Opportunity(testOpportunity())

	require.NotNil(t, f)
	assert.Equal(t, float64(15000), f["stipend"])
	assert.Equal(t, float64(6), f["duration_months"])
	assert.Equal(t, float64(3), f["company_size"])   // medium
	assert.Equal(t, float64(2), f["sector_ordinal"]) // technology
	assert.Equal(t, float64(40), f["application_volume"])
	assert.Equal(t, 0.4, f["competitiveness"])
}

func TestOpportunity_CompetitivenessCapped(t *testing.T) {
	ex := NewExtractor(skills.New())

	o := testOpportunity()
	o.Analytics.Applications = 250

	assert.Equal(t, float64(1), ex.Opportunity(o)["competitiveness"])
}

// ==========================
// INTERACTION FEATURE TESTS
// ==========================

func TestSkillMatch(t *testing.T) {
	have := []models.Skill{
		{CanonicalName: "python"},
		{CanonicalName: "machine learning"},
	}

	tests := []struct {
		name     string
		required []string
		expected float64
	}{
		{"full coverage", []string{"python"}, 1},
		{"substring coverage", []string{"learning"}, 1},
		{"partial coverage", []string{"python", "react"}, 0.5},
		{"no coverage", []string{"react", "figma"}, 0},
		{"no requirements", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SkillMatch(have, tt.required))
		})
	}
}

func TestLocationMatch(t *testing.T) {
	c := testCandidate()

	remote := testOpportunity()
	remote.Flags.Remote = true
	remote.Location.City = "Delhi"
	assert.Equal(t, float64(1), LocationMatch(c, remote))

	same := testOpportunity()
	assert.Equal(t, float64(1), LocationMatch(c, same))

	contains := testOpportunity()
	contains.Location.City = "Pune City"
	assert.Equal(t, 0.8, LocationMatch(c, contains))

	far := testOpportunity()
	far.Location.City = "Delhi"
	assert.Equal(t, 0.2, LocationMatch(c, far))

	unknown := testOpportunity()
	unknown.Location.City = ""
	assert.Equal(t, 0.5, LocationMatch(c, unknown))
}

func TestStipendMatch(t *testing.T) {
	prefs := models.Preferences{MinStipend: 10000, MaxStipend: 20000}

	assert.Equal(t, float64(1), StipendMatch(prefs, 15000))
	assert.Equal(t, 0.5, StipendMatch(prefs, 5000))
	assert.Equal(t, 0.5, StipendMatch(prefs, 40000))
	assert.Equal(t, float64(1), StipendMatch(models.Preferences{}, 8000))
}

func TestInteraction_WithApplication(t *testing.T) {
	ex := NewExtractor(skills.New())

	app := &models.Application{
		Status:    models.StatusShortlisted,
		AppliedAt: testNow().AddDate(0, 0, -3),
	}

	f := ex.Interaction(testCandidate(), testOpportunity(), app, testNow())

	require.NotNil(t, f)
	assert.Equal(t, float64(3), f["application_status"])
	assert.InDelta(t, 3, f["days_since_applied"], 0.01)
	assert.Equal(t, float64(1), f["sector_match"])
}
