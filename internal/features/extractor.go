// internal/features/extractor.go
package features

import (
	"strings"
	"time"

	"internmatch-workers/internal/models"
	"internmatch-workers/internal/skills"
)

// VectorLength is the fixed length of the ordered feature vector.
const VectorLength = 37

// Keys is the versioned feature order. Append-only: new features go at the
// end, existing positions never move.
var Keys = []string{
	// candidate block
	"age", "gender", "education_level", "cgpa",
	"skill_technical", "skill_design", "skill_marketing", "skill_business", "skill_data",
	"experience_count", "location_tier", "pref_min_stipend", "remote_flexible",
	"profile_completeness",
	// opportunity block
	"stipend", "duration_months", "remote",
	"req_technical", "req_design", "req_marketing", "req_business", "req_data",
	"company_size", "sector_ordinal", "opp_location_tier",
	"benefit_certificate", "benefit_flexible", "benefit_job_offer",
	"application_volume", "competitiveness", "urgent",
	// interaction block
	"skill_match", "location_match", "stipend_match", "sector_match",
	"application_status", "days_since_applied",
}

const defaultAge = 22

// Extractor converts domain records into named numeric feature sets. All
// methods are pure given the taxonomy and the supplied clock instant.
type Extractor struct {
	taxonomy *skills.Taxonomy
}

func NewExtractor(taxonomy *skills.Taxonomy) *Extractor {
	return &Extractor{taxonomy: taxonomy}
}

// Candidate extracts the candidate feature block. Returns nil when the
// profile is nil.
func (e *Extractor) Candidate(c *models.CandidateProfile, now time.Time) map[string]float64 {
	if c == nil {
		return nil
	}

	f := map[string]float64{
		"age":             float64(defaultAge),
		"gender":          genderOrdinal(c.Gender),
		"education_level": e.taxonomy.EducationOrdinal(c.Education.Level),
		"cgpa":            c.Education.CGPA,
	}
	if c.BirthDate != nil {
		years := now.Sub(*c.BirthDate).Hours() / (24 * 365.25)
		if years > 0 {
			f["age"] = float64(int(years))
		}
	}

	counts := e.taxonomy.CategoryCounts(canonicalSkillNames(c.Skills))
	f["skill_technical"] = counts[skills.CategoryTechnical]
	f["skill_design"] = counts[skills.CategoryDesign]
	f["skill_marketing"] = counts[skills.CategoryMarketing]
	f["skill_business"] = counts[skills.CategoryBusiness]
	f["skill_data"] = counts[skills.CategoryData]

	f["experience_count"] = float64(len(c.Experience))
	f["location_tier"] = e.taxonomy.CityTier(c.Location.City)
	f["pref_min_stipend"] = c.Preferences.MinStipend
	if c.Preferences.WorkType == models.WorkTypeRemote || c.Preferences.WorkType == models.WorkTypeAny {
		f["remote_flexible"] = 1
	} else {
		f["remote_flexible"] = 0
	}
	f["profile_completeness"] = completeness(c)

	return f
}

// Opportunity extracts the opportunity feature block. Returns nil when the
// opportunity is nil.
func (e *Extractor) Opportunity(o *models.Opportunity) map[string]float64 {
	if o == nil {
		return nil
	}

	f := map[string]float64{
		"stipend":         o.StipendMonthly,
		"duration_months": float64(o.DurationMonths),
		"remote":          boolFeature(o.Flags.Remote),
	}

	counts := e.taxonomy.CategoryCounts(o.RequiredSkills)
	f["req_technical"] = counts[skills.CategoryTechnical]
	f["req_design"] = counts[skills.CategoryDesign]
	f["req_marketing"] = counts[skills.CategoryMarketing]
	f["req_business"] = counts[skills.CategoryBusiness]
	f["req_data"] = counts[skills.CategoryData]

	f["company_size"] = companySizeOrdinal(o.CompanySize)
	f["sector_ordinal"] = e.taxonomy.SectorOrdinal(o.Sector)
	f["opp_location_tier"] = e.taxonomy.CityTier(o.Location.City)
	f["benefit_certificate"] = boolFeature(o.Benefits.Certificate)
	f["benefit_flexible"] = boolFeature(o.Benefits.FlexibleHours)
	f["benefit_job_offer"] = boolFeature(o.Benefits.JobOffer)
	f["application_volume"] = float64(o.Analytics.Applications)
	f["competitiveness"] = min1(float64(o.Analytics.Applications) / 100)
	f["urgent"] = boolFeature(o.Flags.Urgent)

	return f
}

// Interaction extracts the cross features. Both candidate and opportunity are
// required; the application is optional and contributes status encoding and
// recency when present.
func (e *Extractor) Interaction(c *models.CandidateProfile, o *models.Opportunity, app *models.Application, now time.Time) map[string]float64 {
	if c == nil || o == nil {
		return nil
	}

	f := map[string]float64{
		"skill_match":    SkillMatch(c.Skills, o.RequiredSkills),
		"location_match": LocationMatch(c, o),
		"stipend_match":  StipendMatch(c.Preferences, o.StipendMonthly),
	}
	f["sector_match"] = 0
	for _, s := range c.Preferences.Sectors {
		if strings.EqualFold(s, o.Sector) {
			f["sector_match"] = 1
			break
		}
	}

	f["application_status"] = 0
	f["days_since_applied"] = 0
	if app != nil {
		f["application_status"] = models.StatusOrdinal(app.Status)
		if !app.AppliedAt.IsZero() {
			days := now.Sub(app.AppliedAt).Hours() / 24
			if days > 0 {
				f["days_since_applied"] = days
			}
		}
	}

	return f
}

// Vector assembles the fixed 37-length ordered array. Keys missing from the
// extracted maps fill with zero. Returns nil when candidate or opportunity is
// missing, so a malformed record drops out of scoring instead of skewing it.
func (e *Extractor) Vector(c *models.CandidateProfile, o *models.Opportunity, app *models.Application, now time.Time) []float64 {
	cf := e.Candidate(c, now)
	of := e.Opportunity(o)
	xf := e.Interaction(c, o, app, now)
	if cf == nil || of == nil || xf == nil {
		return nil
	}

	merged := make(map[string]float64, VectorLength)
	for k, v := range cf {
		merged[k] = v
	}
	for k, v := range of {
		merged[k] = v
	}
	for k, v := range xf {
		merged[k] = v
	}

	vec := make([]float64, len(Keys))
	for i, k := range Keys {
		vec[i] = merged[k]
	}
	return vec
}

// SkillMatch returns the fraction of required skills the candidate covers.
// A required skill counts as covered on exact canonical equality or when one
// name contains the other. No requirements means a full match.
func SkillMatch(have []models.Skill, required []string) float64 {
	if len(required) == 0 {
		return 1
	}
	haveNames := canonicalSkillNames(have)
	covered := 0
	for _, req := range required {
		r := skills.Canonical(req)
		if r == "" {
			continue
		}
		for _, h := range haveNames {
			if h == r || strings.Contains(h, r) || strings.Contains(r, h) {
				covered++
				break
			}
		}
	}
	return float64(covered) / float64(len(required))
}

// LocationMatch scores geographic compatibility on the fixed scale: remote
// always matches, identical city strings match, partial containment is close,
// anything else is a weak mismatch. Missing data on either side is neutral.
func LocationMatch(c *models.CandidateProfile, o *models.Opportunity) float64 {
	if o.Flags.Remote {
		return 1
	}
	cc := strings.ToLower(strings.TrimSpace(c.Location.City))
	oc := strings.ToLower(strings.TrimSpace(o.Location.City))
	if cc == "" || oc == "" {
		return 0.5
	}
	if cc == oc {
		return 1
	}
	if strings.Contains(cc, oc) || strings.Contains(oc, cc) {
		return 0.8
	}
	return 0.2
}

// StipendMatch returns 1 when the stipend falls inside the candidate's
// preferred range, otherwise a proportional ratio clamped to be non-negative.
func StipendMatch(prefs models.Preferences, stipend float64) float64 {
	minStipend := prefs.MinStipend
	maxStipend := prefs.MaxStipend
	if minStipend <= 0 && maxStipend <= 0 {
		return 1
	}
	if maxStipend <= 0 {
		maxStipend = stipend + 1 // only a floor was set
	}
	if stipend >= minStipend && stipend <= maxStipend {
		return 1
	}
	var ratio float64
	if stipend < minStipend && minStipend > 0 {
		ratio = stipend / minStipend
	} else if maxStipend > 0 {
		ratio = maxStipend / stipend
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

func canonicalSkillNames(list []models.Skill) []string {
	names := make([]string, 0, len(list))
	for _, s := range list {
		name := s.CanonicalName
		if name == "" {
			name = skills.Canonical(s.DisplayName)
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func genderOrdinal(gender string) float64 {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male":
		return 1
	case "female":
		return 0
	default:
		return 0.5
	}
}

func companySizeOrdinal(size string) float64 {
	switch strings.ToLower(strings.TrimSpace(size)) {
	case "startup":
		return 1
	case "small":
		return 2
	case "medium":
		return 3
	case "large":
		return 4
	case "enterprise":
		return 5
	default:
		return 2
	}
}

// completeness is the ratio of populated required fields over the required
// total, with experience and preferences counted as bonus fields.
func completeness(c *models.CandidateProfile) float64 {
	const requiredTotal = 6

	populated := 0
	if c.Name != "" {
		populated++
	}
	if c.BirthDate != nil {
		populated++
	}
	if c.Gender != "" {
		populated++
	}
	if len(c.Skills) > 0 {
		populated++
	}
	if c.Location.City != "" {
		populated++
	}
	if c.Education.Level != "" {
		populated++
	}

	bonus := 0.0
	if len(c.Experience) > 0 {
		bonus += 0.1
	}
	if c.Preferences.WorkType != "" || c.Preferences.MinStipend > 0 || len(c.Preferences.Sectors) > 0 {
		bonus += 0.1
	}

	ratio := float64(populated)/requiredTotal + bonus
	return min1(ratio)
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
