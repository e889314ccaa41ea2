// internal/models/candidate.go
package models

import "time"

// Skill provenance values.
const (
	SkillProvenanceUser     = "user"
	SkillProvenanceInferred = "inferred"
	SkillProvenanceVerified = "verified"
)

// Skill is a single candidate skill with its normalized identifier.
type Skill struct {
	DisplayName   string  `json:"displayName"`
	CanonicalName string  `json:"canonicalName"`
	Confidence    float64 `json:"confidence"` // [0,1]
	Provenance    string  `json:"provenance"`
}

// Location is a geographic point plus administrative labels.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	District  string  `json:"district,omitempty"`
	State     string  `json:"state,omitempty"`
}

// Education levels in ascending order. Ordinal values come from
// skills.EducationOrdinal.
const (
	EducationTenth   = "10th"
	EducationTwelfth = "12th"
	EducationDiploma = "Diploma"
	EducationUG      = "UG"
	EducationPG      = "PG"
	EducationPhD     = "PhD"
)

type Education struct {
	Level string  `json:"level"`
	Field string  `json:"field,omitempty"`
	Year  int     `json:"year,omitempty"`
	CGPA  float64 `json:"cgpa,omitempty"` // grade or percentage, passed through as-is
}

// Work-type preference values.
const (
	WorkTypeRemote = "remote"
	WorkTypeOnsite = "onsite"
	WorkTypeAny    = "any"
)

type Preferences struct {
	MaxDistanceKm     float64  `json:"maxDistanceKm,omitempty"`
	WorkType          string   `json:"workType,omitempty"`
	MinStipend        float64  `json:"minStipend,omitempty"`
	MaxStipend        float64  `json:"maxStipend,omitempty"`
	Sectors           []string `json:"sectors,omitempty"`
	MinDurationMonths int      `json:"minDurationMonths,omitempty"`
	MaxDurationMonths int      `json:"maxDurationMonths,omitempty"`
}

type ExperienceEntry struct {
	Title  string `json:"title"`
	Months int    `json:"months,omitempty"`
}

// CandidateAnalytics holds counters this engine increments as a side effect
// of recommendation generation. Everything else on the profile is read-only.
type CandidateAnalytics struct {
	ApplicationsSent      int        `json:"applicationsSent"`
	ApplicationsSucceeded int        `json:"applicationsSucceeded"`
	AvgMatchScore         float64    `json:"avgMatchScore"`
	LastRecommendedAt     *time.Time `json:"lastRecommendedAt,omitempty"`
}

// CandidateProfile is the engine's view of a candidate. ID is optional so
// that not-yet-persisted profiles (e.g. scoring during onboarding) are first
// class values rather than ad hoc shapes.
type CandidateProfile struct {
	ID          string             `json:"id,omitempty"`
	Name        string             `json:"name,omitempty"`
	BirthDate   *time.Time         `json:"birthDate,omitempty"`
	Gender      string             `json:"gender,omitempty"`
	Skills      []Skill            `json:"skills,omitempty"`
	Location    Location           `json:"location"`
	Education   Education          `json:"education"`
	Preferences Preferences        `json:"preferences"`
	Experience  []ExperienceEntry  `json:"experience,omitempty"`
	Analytics   CandidateAnalytics `json:"analytics"`
}

// SuccessRate returns the fraction of sent applications that succeeded,
// or -1 when the candidate has no application history.
func (c *CandidateProfile) SuccessRate() float64 {
	if c.Analytics.ApplicationsSent == 0 {
		return -1
	}
	return float64(c.Analytics.ApplicationsSucceeded) / float64(c.Analytics.ApplicationsSent)
}
