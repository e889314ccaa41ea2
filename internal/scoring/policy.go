// internal/scoring/policy.go
package scoring

// Policy holds the sub-score weights applied by every scoring call site.
// There is exactly one policy per engine instance so apply-time and
// recommendation-time scores always agree.
type Policy struct {
	SkillsWeight      float64 `json:"skillsWeight"`
	LocationWeight    float64 `json:"locationWeight"`
	EducationWeight   float64 `json:"educationWeight"`
	PreferencesWeight float64 `json:"preferencesWeight"`
	ProviderWeight    float64 `json:"providerWeight"`
}

// DefaultPolicy returns the canonical weighting.
func DefaultPolicy() Policy {
	return Policy{
		SkillsWeight:      0.6,
		LocationWeight:    0.2,
		EducationWeight:   0.1,
		PreferencesWeight: 0.05,
		ProviderWeight:    0.05,
	}
}
