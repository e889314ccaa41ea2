package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch-workers/internal/models"
	"internmatch-workers/internal/skills"
)

func newTestEngine() *Engine {
	return NewEngine(skills.New(), DefaultPolicy())
}

func strongPair() (*models.CandidateProfile, *models.Opportunity) {
	c := &models.CandidateProfile{
		ID: "cand-1",
		Skills: []models.Skill{
			{CanonicalName: "javascript"},
			{CanonicalName: "react"},
		},
		Location:    models.Location{City: "Pune", District: "Pune", State: "Maharashtra"},
		Education:   models.Education{Level: models.EducationUG, Field: "Computer Science"},
		Preferences: models.Preferences{MinStipend: 10000},
	}
	o := &models.Opportunity{
		ID:             "opp-1",
		RequiredSkills: []string{"javascript", "react"},
		Location:       models.Location{City: "Pune", District: "Pune", State: "Maharashtra"},
		StipendMonthly: 15000,
		Sector:         "technology",
		Provider:       models.Provider{Reliability: 80},
	}
	return c, o
}

// ==========================
// SCORE TESTS
// ==========================

func TestScore_StrongMatch(t *testing.T) {
	c, o := strongPair()

	result := newTestEngine().Score(c, o)

	require.NotNil(t, result)
	assert.GreaterOrEqual(t, result.MatchScore, 90)
	assert.Equal(t, float64(100), result.Subscores.Skills)
	assert.Equal(t, float64(100), result.Subscores.Location)
}

func TestScore_NilInputs(t *testing.T) {
	c, o := strongPair()
	engine := newTestEngine()

	assert.Nil(t, engine.Score(nil, o))
	assert.Nil(t, engine.Score(c, nil))
}

func TestScore_Bounds(t *testing.T) {
	engine := newTestEngine()

	empty := engine.Score(&models.CandidateProfile{}, &models.Opportunity{})
	require.NotNil(t, empty)
	assert.GreaterOrEqual(t, empty.MatchScore, 0)
	assert.LessOrEqual(t, empty.MatchScore, 100)

	c, o := strongPair()
	o.Provider.Rating = 5
	strong := engine.Score(c, o)
	assert.LessOrEqual(t, strong.MatchScore, 100)
}

// ==========================
// SUB-SCORE TESTS
// ==========================

func TestSkillScore(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		skills   []models.Skill
		required []string
		expected float64
	}{
		{"all exact", []models.Skill{{CanonicalName: "python"}}, []string{"python"}, 100},
		{"half exact", []models.Skill{{CanonicalName: "python"}}, []string{"python", "react"}, 50},
		{"fuzzy only", []models.Skill{{CanonicalName: "python programming"}}, []string{"python"}, 50},
		{"no match", []models.Skill{{CanonicalName: "figma"}}, []string{"python"}, 0},
		{"no requirements", nil, nil, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.CandidateProfile{Skills: tt.skills}
			o := &models.Opportunity{RequiredSkills: tt.required}
			assert.Equal(t, tt.expected, engine.skillScore(c, o))
		})
	}
}

func TestLocationScore(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name     string
		cand     models.Location
		opp      models.Location
		remote   bool
		expected float64
	}{
		{"remote opportunity", models.Location{}, models.Location{}, true, 100},
		{"same district", models.Location{District: "Pune"}, models.Location{District: "pune"}, false, 100},
		{"same state", models.Location{State: "Maharashtra"}, models.Location{State: "Maharashtra"}, false, 80},
		{
			"within 50 km",
			models.Location{Latitude: 18.52, Longitude: 73.85},
			models.Location{Latitude: 18.60, Longitude: 73.90},
			false, 70,
		},
		{
			"beyond 200 km",
			models.Location{Latitude: 18.52, Longitude: 73.85},
			models.Location{Latitude: 28.61, Longitude: 77.20},
			false, 10,
		},
		{"no coordinates", models.Location{City: "Pune"}, models.Location{City: "Delhi"}, false, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.CandidateProfile{Location: tt.cand}
			o := &models.Opportunity{Location: tt.opp}
			o.Flags.Remote = tt.remote
			assert.Equal(t, tt.expected, engine.locationScore(c, o))
		})
	}
}

func TestEducationScore(t *testing.T) {
	engine := newTestEngine()

	pg := &models.CandidateProfile{Education: models.Education{Level: models.EducationPG}}
	assert.Equal(t, float64(100), engine.educationScore(pg, &models.Opportunity{}))

	tenth := &models.CandidateProfile{Education: models.Education{Level: models.EducationTenth}}
	assert.Equal(t, float64(55), engine.educationScore(tenth, &models.Opportunity{}))

	relevant := &models.CandidateProfile{
		Education: models.Education{Level: models.EducationDiploma, Field: "Computer Applications"},
	}
	tech := &models.Opportunity{Sector: "technology"}
	assert.Equal(t, float64(100), engine.educationScore(relevant, tech)) // 85 + 20 capped
}

func TestPreferenceScore(t *testing.T) {
	engine := newTestEngine()

	c := &models.CandidateProfile{
		Preferences: models.Preferences{
			MinStipend: 10000,
			WorkType:   models.WorkTypeRemote,
			Sectors:    []string{"technology"},
		},
	}
	o := &models.Opportunity{StipendMonthly: 12000, Sector: "technology"}
	o.Flags.Remote = true

	// 50 + 25 stipend + 15 remote + 10 sector
	assert.Equal(t, float64(100), engine.preferenceScore(c, o))

	low := &models.Opportunity{StipendMonthly: 5000}
	// 50 - 15 stipend, no work-type alignment, no sector
	assert.Equal(t, float64(35), engine.preferenceScore(c, low))
}

func TestProviderScore(t *testing.T) {
	engine := newTestEngine()

	unknown := &models.Opportunity{}
	assert.Equal(t, float64(50), engine.providerScore(unknown))

	rated := &models.Opportunity{Provider: models.Provider{Reliability: 70, Rating: 5}}
	assert.Equal(t, float64(90), engine.providerScore(rated))

	withCompletion := &models.Opportunity{
		Provider:  models.Provider{Reliability: 80},
		Analytics: models.OpportunityAnalytics{CompletionRate: 0.6},
	}
	assert.Equal(t, float64(70), engine.providerScore(withCompletion))
}

// ==========================
// EXPLANATION TESTS
// ==========================

func TestReasons_FixedOrderAndCap(t *testing.T) {
	c, o := strongPair()
	o.Flags.BeginnerFriendly = true
	o.Flags.Urgent = true

	result := newTestEngine().Score(c, o)

	require.NotNil(t, result)
	assert.LessOrEqual(t, len(result.Reasons), 4)
	assert.Equal(t, "Matches 2 of 2 required skills", result.Reasons[0])
	assert.Equal(t, "Located in the same district", result.Reasons[1])
}

func TestReasons_Deterministic(t *testing.T) {
	c, o := strongPair()
	engine := newTestEngine()

	first := engine.Score(c, o)
	second := engine.Score(c, o)

	assert.Equal(t, first.Reasons, second.Reasons)
}
