package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch-workers/internal/models"
	"internmatch-workers/internal/skills"
)

func newTestEstimator() *Estimator {
	return NewEstimator(skills.New())
}

// ==========================
// ESTIMATE TESTS
// ==========================

func TestEstimate_LowRiskBaseline(t *testing.T) {
	c := &models.CandidateProfile{
		Location:    models.Location{Latitude: 18.52, Longitude: 73.85},
		Education:   models.Education{Level: models.EducationUG},
		Preferences: models.Preferences{MinStipend: 10000},
	}
	o := &models.Opportunity{
		Location:       models.Location{Latitude: 18.53, Longitude: 73.86},
		StipendMonthly: 15000,
		Provider:       models.Provider{Reliability: 85},
	}

	est := newTestEstimator().Estimate(c, o, nil)

	require.NotNil(t, est)
	assert.InDelta(t, 0.1, est.DropoutProbability, 0.001)
	assert.Equal(t, LevelLow, est.RiskLevel)
	assert.Empty(t, est.Factors)
}

func TestEstimate_HighRiskAccumulation(t *testing.T) {
	// Far away, underpaid, under-qualified for a non-beginner role.
	c := &models.CandidateProfile{
		Location:    models.Location{Latitude: 18.52, Longitude: 73.85}, // Pune
		Education:   models.Education{Level: models.EducationTenth},
		Preferences: models.Preferences{MinStipend: 20000},
	}
	o := &models.Opportunity{
		Location:       models.Location{Latitude: 21.15, Longitude: 79.09}, // Nagpur, ~600 km
		StipendMonthly: 15000,
		Provider:       models.Provider{Reliability: 90},
	}

	est := newTestEstimator().Estimate(c, o, nil)

	require.NotNil(t, est)
	assert.GreaterOrEqual(t, est.DropoutProbability, 0.5)
	assert.Equal(t, LevelHigh, est.RiskLevel)
}

func TestEstimate_ClampedAtMax(t *testing.T) {
	c := &models.CandidateProfile{
		Location:  models.Location{Latitude: 18.52, Longitude: 73.85},
		Education: models.Education{Level: models.EducationTenth},
		Preferences: models.Preferences{
			MinStipend:        30000,
			WorkType:          models.WorkTypeRemote,
			MaxDurationMonths: 3,
			Sectors:           []string{"finance"},
		},
		Analytics: models.CandidateAnalytics{ApplicationsSent: 10, ApplicationsSucceeded: 1},
	}
	o := &models.Opportunity{
		Location:       models.Location{Latitude: 28.61, Longitude: 77.20},
		StipendMonthly: 5000,
		DurationMonths: 12,
		Sector:         "retail",
		Provider:       models.Provider{Reliability: 40},
		PostedAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	app := &models.Application{
		AppliedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	est := newTestEstimator().Estimate(c, o, app)

	require.NotNil(t, est)
	assert.Equal(t, 0.9, est.DropoutProbability)
	assert.Equal(t, LevelHigh, est.RiskLevel)
}

func TestEstimate_NilInputs(t *testing.T) {
	est := newTestEstimator()

	assert.Nil(t, est.Estimate(nil, &models.Opportunity{}, nil))
	assert.Nil(t, est.Estimate(&models.CandidateProfile{}, nil, nil))
}

// ==========================
// PENALTY TESTS
// ==========================

func TestEstimate_ProportionalStipendPenalty(t *testing.T) {
	c := &models.CandidateProfile{
		Education:   models.Education{Level: models.EducationUG},
		Preferences: models.Preferences{MinStipend: 20000},
	}

	small := &models.Opportunity{StipendMonthly: 19000} // 5% shortfall
	est := newTestEstimator().Estimate(c, small, nil)
	assert.InDelta(t, 0.1+0.05, est.DropoutProbability, 0.001)

	large := &models.Opportunity{StipendMonthly: 5000} // 75% shortfall, capped at 0.2
	est = newTestEstimator().Estimate(c, large, nil)
	assert.InDelta(t, 0.1+0.2, est.DropoutProbability, 0.001)
}

func TestEstimate_RemoteSkipsDistance(t *testing.T) {
	c := &models.CandidateProfile{
		Location:  models.Location{Latitude: 18.52, Longitude: 73.85},
		Education: models.Education{Level: models.EducationUG},
	}
	o := &models.Opportunity{
		Location: models.Location{Latitude: 28.61, Longitude: 77.20},
	}
	o.Flags.Remote = true

	est := newTestEstimator().Estimate(c, o, nil)

	assert.InDelta(t, 0.1, est.DropoutProbability, 0.001)
}

func TestEstimate_BeginnerFriendlyWaivesQualification(t *testing.T) {
	c := &models.CandidateProfile{
		Education: models.Education{Level: models.EducationTenth},
	}
	o := &models.Opportunity{}
	o.Flags.BeginnerFriendly = true

	est := newTestEstimator().Estimate(c, o, nil)

	assert.InDelta(t, 0.1, est.DropoutProbability, 0.001)
}

// ==========================
// FACTOR TESTS
// ==========================

func TestEstimate_FactorsOnlyMaterial(t *testing.T) {
	c := &models.CandidateProfile{
		Education:   models.Education{Level: models.EducationUG},
		Preferences: models.Preferences{MinStipend: 20000},
	}
	o := &models.Opportunity{StipendMonthly: 19600} // 2% shortfall, below materiality

	est := newTestEstimator().Estimate(c, o, nil)

	require.NotNil(t, est)
	assert.Empty(t, est.Factors)
	assert.Greater(t, est.DropoutProbability, 0.1)
}

func TestEstimate_FactorCarriesRawValue(t *testing.T) {
	c := &models.CandidateProfile{
		Location:  models.Location{Latitude: 18.52, Longitude: 73.85},
		Education: models.Education{Level: models.EducationUG},
	}
	o := &models.Opportunity{
		Location: models.Location{Latitude: 21.15, Longitude: 79.09},
	}

	est := newTestEstimator().Estimate(c, o, nil)

	require.Len(t, est.Factors, 1)
	assert.Equal(t, "distance", est.Factors[0].Name)
	assert.Greater(t, est.Factors[0].Value, 200.0)
}

// ==========================
// LEVEL TESTS
// ==========================

func TestLevelBands(t *testing.T) {
	assert.Equal(t, LevelLow, level(0.1))
	assert.Equal(t, LevelLow, level(0.39))
	assert.Equal(t, LevelMedium, level(0.4))
	assert.Equal(t, LevelMedium, level(0.69))
	assert.Equal(t, LevelHigh, level(0.7))
	assert.Equal(t, LevelHigh, level(0.9))
}
