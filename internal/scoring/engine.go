// internal/scoring/engine.go
package scoring

import (
	"fmt"
	"math"
	"strings"

	"internmatch-workers/internal/models"
	"internmatch-workers/internal/skills"
)

const maxReasons = 4

// Subscores breaks a match score into its weighted components, each in
// [0,100].
type Subscores struct {
	Skills      float64 `json:"skills"`
	Location    float64 `json:"location"`
	Education   float64 `json:"education"`
	Preferences float64 `json:"preferences"`
	Provider    float64 `json:"provider"`
}

// Result is one candidate-opportunity match evaluation.
type Result struct {
	MatchScore int       `json:"matchScore"` // [0,100]
	Subscores  Subscores `json:"subscores"`
	Reasons    []string  `json:"explainReasons"`
}

// Engine computes explainable rule-based match scores. All methods are pure
// and safe for concurrent use.
type Engine struct {
	taxonomy *skills.Taxonomy
	policy   Policy
}

func NewEngine(taxonomy *skills.Taxonomy, policy Policy) *Engine {
	return &Engine{taxonomy: taxonomy, policy: policy}
}

// Score evaluates one pair. Returns nil when either record is missing so a
// malformed entity drops out of ranking instead of failing the batch.
func (e *Engine) Score(c *models.CandidateProfile, o *models.Opportunity) *Result {
	if c == nil || o == nil {
		return nil
	}

	sub := Subscores{
		Skills:      e.skillScore(c, o),
		Location:    e.locationScore(c, o),
		Education:   e.educationScore(c, o),
		Preferences: e.preferenceScore(c, o),
		Provider:    e.providerScore(o),
	}

	total := sub.Skills*e.policy.SkillsWeight +
		sub.Location*e.policy.LocationWeight +
		sub.Education*e.policy.EducationWeight +
		sub.Preferences*e.policy.PreferencesWeight +
		sub.Provider*e.policy.ProviderWeight

	return &Result{
		MatchScore: clampScore(int(math.Round(total))),
		Subscores:  sub,
		Reasons:    e.reasons(c, o),
	}
}

// skillScore rewards exact canonical matches fully and substring matches at
// half weight.
func (e *Engine) skillScore(c *models.CandidateProfile, o *models.Opportunity) float64 {
	if len(o.RequiredSkills) == 0 {
		return 100
	}

	have := candidateSkillSet(c)
	exact, fuzzy := 0, 0
	for _, req := range o.RequiredSkills {
		r := skills.Canonical(req)
		if r == "" {
			continue
		}
		if have[r] {
			exact++
			continue
		}
		for h := range have {
			if strings.Contains(h, r) || strings.Contains(r, h) {
				fuzzy++
				break
			}
		}
	}

	n := float64(len(o.RequiredSkills))
	score := (float64(exact)/n)*100 + (float64(fuzzy)/n)*50
	return math.Min(100, score)
}

func (e *Engine) locationScore(c *models.CandidateProfile, o *models.Opportunity) float64 {
	if o.Flags.Remote {
		return 100
	}
	if sameLabel(c.Location.District, o.Location.District) {
		return 100
	}
	if sameLabel(c.Location.State, o.Location.State) {
		return 80
	}
	if !c.Location.HasCoordinates() || !o.Location.HasCoordinates() {
		return 50
	}
	switch dist := c.Location.DistanceKm(o.Location); {
	case dist <= 50:
		return 70
	case dist <= 100:
		return 50
	case dist <= 200:
		return 30
	default:
		return 10
	}
}

func (e *Engine) educationScore(c *models.CandidateProfile, o *models.Opportunity) float64 {
	ordinal := e.taxonomy.EducationOrdinal(c.Education.Level)
	score := math.Min(100, ordinal*15+40)
	if e.taxonomy.FieldMatchesSector(c.Education.Field, o.Sector) {
		score += 20
	}
	return math.Min(100, score)
}

func (e *Engine) preferenceScore(c *models.CandidateProfile, o *models.Opportunity) float64 {
	score := 50.0

	if c.Preferences.MinStipend > 0 {
		if o.StipendMonthly >= c.Preferences.MinStipend {
			score += 25
		} else {
			score -= 15
		}
	}

	switch c.Preferences.WorkType {
	case models.WorkTypeRemote:
		if o.Flags.Remote {
			score += 15
		}
	case models.WorkTypeOnsite:
		if !o.Flags.Remote {
			score += 10
		}
	case models.WorkTypeAny:
		if o.Flags.Remote {
			score += 15
		} else {
			score += 10
		}
	}

	for _, s := range c.Preferences.Sectors {
		if strings.EqualFold(s, o.Sector) {
			score += 10
			break
		}
	}

	return clampFloat(score, 0, 100)
}

func (e *Engine) providerScore(o *models.Opportunity) float64 {
	reliability := o.Provider.Reliability
	if reliability == 0 {
		reliability = 50
	}
	if o.Provider.Rating > 0 {
		reliability += (o.Provider.Rating - 3) * 10
	}
	if o.Analytics.CompletionRate > 0 {
		reliability = (reliability + o.Analytics.CompletionRate*100) / 2
	}
	return clampFloat(reliability, 0, 100)
}

// reasons runs a fixed sequence of checks and keeps the first four hits, so
// the same pair always explains the same way.
func (e *Engine) reasons(c *models.CandidateProfile, o *models.Opportunity) []string {
	out := make([]string, 0, maxReasons)
	add := func(r string) {
		if len(out) < maxReasons {
			out = append(out, r)
		}
	}

	if n := len(o.RequiredSkills); n > 0 {
		matched := matchedSkillCount(c, o)
		if matched > 0 {
			add(fmt.Sprintf("Matches %d of %d required skills", matched, n))
		}
	}

	switch {
	case o.Flags.Remote:
		// covered by the remote flag check below
	case sameLabel(c.Location.District, o.Location.District):
		add("Located in the same district")
	case sameLabel(c.Location.State, o.Location.State):
		add("Located in the same state")
	case c.Location.HasCoordinates() && o.Location.HasCoordinates():
		add(fmt.Sprintf("About %.0f km from your location", c.Location.DistanceKm(o.Location)))
	}

	if o.Flags.BeginnerFriendly {
		add("Beginner friendly role")
	}
	if o.Flags.Remote {
		add("Remote work available")
	}
	if o.Flags.Urgent {
		add("Actively hiring right now")
	}

	if c.Preferences.MinStipend > 0 && o.StipendMonthly >= c.Preferences.MinStipend {
		add("Stipend meets your expectation")
	}

	return out
}

func matchedSkillCount(c *models.CandidateProfile, o *models.Opportunity) int {
	have := candidateSkillSet(c)
	matched := 0
	for _, req := range o.RequiredSkills {
		r := skills.Canonical(req)
		if r == "" {
			continue
		}
		if have[r] {
			matched++
			continue
		}
		for h := range have {
			if strings.Contains(h, r) || strings.Contains(r, h) {
				matched++
				break
			}
		}
	}
	return matched
}

func candidateSkillSet(c *models.CandidateProfile) map[string]bool {
	set := make(map[string]bool, len(c.Skills))
	for _, s := range c.Skills {
		name := s.CanonicalName
		if name == "" {
			name = skills.Canonical(s.DisplayName)
		}
		if name != "" {
			set[name] = true
		}
	}
	return set
}

func sameLabel(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
