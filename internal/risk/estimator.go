// internal/risk/estimator.go
package risk

import (
	"fmt"
	"math"

	"internmatch-workers/internal/models"
	"internmatch-workers/internal/skills"
)

// Risk level labels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

const (
	baseProbability      = 0.1
	maxProbability       = 0.9
	materialityThreshold = 0.05
)

// Factor is one material contribution to the dropout probability.
type Factor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Penalty     float64 `json:"penalty"`
	Value       float64 `json:"value,omitempty"` // raw quantity behind the penalty, e.g. km
}

// Estimate is the bounded dropout prediction for one pair.
type Estimate struct {
	DropoutProbability float64  `json:"dropoutProbability"` // [0, 0.9]
	RiskLevel          string   `json:"riskLevel"`
	Factors            []Factor `json:"factors"`
}

// Estimator computes rule-based dropout probabilities. Penalties are
// additive with no early exit; the result is clamped to 0.9.
type Estimator struct {
	taxonomy *skills.Taxonomy
}

func NewEstimator(taxonomy *skills.Taxonomy) *Estimator {
	return &Estimator{taxonomy: taxonomy}
}

// Estimate evaluates one pair, with an optional application for recency
// signals. Returns nil when candidate or opportunity is missing.
func (e *Estimator) Estimate(c *models.CandidateProfile, o *models.Opportunity, app *models.Application) *Estimate {
	if c == nil || o == nil {
		return nil
	}

	prob := baseProbability
	var factors []Factor

	apply := func(name, description string, penalty, value float64) {
		prob += penalty
		if penalty >= materialityThreshold {
			factors = append(factors, Factor{
				Name:        name,
				Description: description,
				Penalty:     penalty,
				Value:       value,
			})
		}
	}

	if !o.Flags.Remote && c.Location.HasCoordinates() && o.Location.HasCoordinates() {
		dist := c.Location.DistanceKm(o.Location)
		switch {
		case dist > 200:
			apply("distance", fmt.Sprintf("Opportunity is %.0f km away", dist), 0.25, dist)
		case dist > 100:
			apply("distance", fmt.Sprintf("Opportunity is %.0f km away", dist), 0.15, dist)
		case dist > 50:
			apply("distance", fmt.Sprintf("Opportunity is %.0f km away", dist), 0.1, dist)
		}
	}

	if c.Preferences.MinStipend > 0 && o.StipendMonthly < c.Preferences.MinStipend {
		shortfall := c.Preferences.MinStipend - o.StipendMonthly
		ratio := shortfall / c.Preferences.MinStipend
		penalty := math.Min(0.2, ratio)
		apply("stipend_shortfall",
			fmt.Sprintf("Stipend is %.0f below the stated minimum", shortfall),
			penalty, shortfall)
	}

	if e.taxonomy.EducationOrdinal(c.Education.Level) < 2 && !o.Flags.BeginnerFriendly {
		apply("under_qualification", "Education level below the typical bar for this role", 0.15, 0)
	}

	if c.Preferences.WorkType == models.WorkTypeRemote && !o.Flags.Remote {
		apply("work_mode_mismatch", "Candidate prefers remote but the role is onsite", 0.1, 0)
	} else if c.Preferences.WorkType == models.WorkTypeOnsite && o.Flags.Remote {
		apply("work_mode_mismatch", "Candidate prefers onsite but the role is remote", 0.05, 0)
	}

	if o.Provider.Reliability > 0 && o.Provider.Reliability < 70 {
		apply("provider_reliability",
			fmt.Sprintf("Provider reliability is %.0f", o.Provider.Reliability),
			0.1, o.Provider.Reliability)
	}

	if c.Preferences.MaxDurationMonths > 0 && o.DurationMonths > c.Preferences.MaxDurationMonths {
		apply("duration", "Duration exceeds the preferred maximum", 0.05, float64(o.DurationMonths))
	}

	if rate := c.SuccessRate(); rate >= 0 && rate < 0.3 {
		apply("low_success_rate",
			fmt.Sprintf("Past application success rate is %.0f%%", rate*100),
			0.1, rate)
	}

	if len(c.Preferences.Sectors) > 0 && !sectorPreferred(c.Preferences.Sectors, o.Sector) {
		apply("sector_mismatch", "Sector is outside the preferred list", 0.05, 0)
	}

	if app != nil && !app.AppliedAt.IsZero() && !o.PostedAt.IsZero() {
		if days := app.AppliedAt.Sub(o.PostedAt).Hours() / 24; days > 14 {
			apply("late_application",
				fmt.Sprintf("Applied %.0f days after posting", days),
				0.05, days)
		}
	}

	if prob > maxProbability {
		prob = maxProbability
	}

	return &Estimate{
		DropoutProbability: prob,
		RiskLevel:          level(prob),
		Factors:            factors,
	}
}

func level(prob float64) string {
	switch {
	case prob < 0.4:
		return LevelLow
	case prob < 0.7:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func sectorPreferred(sectors []string, sector string) bool {
	for _, s := range sectors {
		if skills.Canonical(s) == skills.Canonical(sector) {
			return true
		}
	}
	return false
}
