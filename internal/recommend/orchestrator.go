// internal/recommend/orchestrator.go
package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/features"
	"internmatch-workers/internal/ml"
	"internmatch-workers/internal/models"
	"internmatch-workers/internal/risk"
	"internmatch-workers/internal/scoring"
)

// MaxTopK caps how many recommendations a single call may request.
const MaxTopK = 20

// Directory is the read/write storage surface the orchestrator needs.
type Directory interface {
	CandidateByID(ctx context.Context, id string) (*models.CandidateProfile, error)
	ActiveOpportunities(ctx context.Context, now time.Time) ([]models.Opportunity, error)
	AppliedOpportunityIDs(ctx context.Context, candidateID string) (map[string]bool, error)
	UpdateLastRecommendedAt(ctx context.Context, candidateID string, at time.Time) error
	IncrementOpportunityViews(ctx context.Context, opportunityIDs []string) error
}

// EventAppender records engine events. Implemented by the event sink.
type EventAppender interface {
	Append(ctx context.Context, event models.EngineEvent) error
}

// FreshnessTracker gates external side effects on recommendation recency.
type FreshnessTracker interface {
	IsFresh(ctx context.Context, candidateID string) bool
	Mark(ctx context.Context, candidateID string, at time.Time)
}

// OpportunitySummary is the listing slice carried on each recommendation.
type OpportunitySummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Provider       string    `json:"provider,omitempty"`
	StipendMonthly float64   `json:"stipendMonthly"`
	City           string    `json:"city,omitempty"`
	Remote         bool      `json:"remote"`
	PostedAt       time.Time `json:"postedAt"`
}

// Recommendation is one ranked entry.
type Recommendation struct {
	Opportunity        OpportunitySummary `json:"opportunity"`
	MatchScore         int                `json:"matchScore"`
	Subscores          scoring.Subscores  `json:"subscores"`
	ExplainReasons     []string           `json:"explainReasons"`
	DropoutProbability float64            `json:"dropoutProbability"`
	RiskLevel          string             `json:"riskLevel"`
	ModelProbability   *float64           `json:"modelProbability,omitempty"`
}

// Orchestrator generates ranked recommendations. Every call recomputes
// scores over the current opportunity pool; the freshness marker only
// controls whether the analytics side effects fire again.
type Orchestrator struct {
	dir       Directory
	scorer    *scoring.Engine
	estimator *risk.Estimator
	extractor *features.Extractor
	registry  *ml.Registry
	events    EventAppender
	freshness FreshnessTracker
	log       logger.Logger
}

func NewOrchestrator(
	dir Directory,
	scorer *scoring.Engine,
	estimator *risk.Estimator,
	extractor *features.Extractor,
	registry *ml.Registry,
	events EventAppender,
	freshness FreshnessTracker,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		dir:       dir,
		scorer:    scorer,
		estimator: estimator,
		extractor: extractor,
		registry:  registry,
		events:    events,
		freshness: freshness,
		log:       log,
	}
}

// GetTopK returns the k best open opportunities for the candidate, highest
// match score first. Opportunities already applied to are excluded before
// scoring.
func (o *Orchestrator) GetTopK(ctx context.Context, candidateID string, k int, forceRefresh bool) ([]Recommendation, error) {
	if k <= 0 || k > MaxTopK {
		k = MaxTopK
	}
	now := time.Now().UTC()

	candidate, err := o.dir.CandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	pool, err := o.dir.ActiveOpportunities(ctx, now)
	if err != nil {
		return nil, err
	}
	applied, err := o.dir.AppliedOpportunityIDs(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	recs := o.scorePool(candidate, pool, applied, now)

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].MatchScore != recs[j].MatchScore {
			return recs[i].MatchScore > recs[j].MatchScore
		}
		ri, rj := recs[i].providerReliability, recs[j].providerReliability
		if ri != rj {
			return ri > rj
		}
		if !recs[i].Opportunity.PostedAt.Equal(recs[j].Opportunity.PostedAt) {
			return recs[i].Opportunity.PostedAt.Before(recs[j].Opportunity.PostedAt)
		}
		return recs[i].Opportunity.ID < recs[j].Opportunity.ID
	})
	if len(recs) > k {
		recs = recs[:k]
	}

	o.recordGeneration(ctx, candidate, recs, now, forceRefresh)

	out := make([]Recommendation, len(recs))
	for i := range recs {
		out[i] = recs[i].Recommendation
	}
	return out, nil
}

// rankedEntry carries sort keys that are not part of the caller-visible
// recommendation.
type rankedEntry struct {
	Recommendation
	providerReliability float64
}

func (o *Orchestrator) scorePool(candidate *models.CandidateProfile, pool []models.Opportunity, applied map[string]bool, now time.Time) []rankedEntry {
	recs := make([]rankedEntry, 0, len(pool))
	for i := range pool {
		opp := &pool[i]
		if applied[opp.ID] || !opp.Active(now) {
			continue
		}

		score := o.scorer.Score(candidate, opp)
		estimate := o.estimator.Estimate(candidate, opp, nil)
		if score == nil || estimate == nil {
			o.log.Warn("Skipping unscorable opportunity", map[string]interface{}{
				"opportunityId": opp.ID,
			})
			continue
		}

		entry := rankedEntry{
			Recommendation: Recommendation{
				Opportunity:        Summary(opp),
				MatchScore:         score.MatchScore,
				Subscores:          score.Subscores,
				ExplainReasons:     score.Reasons,
				DropoutProbability: estimate.DropoutProbability,
				RiskLevel:          estimate.RiskLevel,
			},
			providerReliability: opp.Provider.Reliability,
		}

		// The trainable path augments the ranking output, it does not
		// replace the rule-based order.
		if vec := o.extractor.Vector(candidate, opp, nil, now); vec != nil {
			if p, err := o.registry.Predict(models.ModelMatchQuality, vec); err == nil {
				entry.ModelProbability = &p
			}
		}

		recs = append(recs, entry)
	}
	return recs
}

// recordGeneration fires the analytics side effects unless a fresh marker
// says they already ran within the TTL. Failures are logged, never surfaced;
// the ranked list is still good.
func (o *Orchestrator) recordGeneration(ctx context.Context, candidate *models.CandidateProfile, recs []rankedEntry, now time.Time, forceRefresh bool) {
	if candidate.ID == "" {
		return
	}
	if !forceRefresh && o.freshness.IsFresh(ctx, candidate.ID) {
		o.log.Debug("Recommendations still fresh, skipping side effects", map[string]interface{}{
			"candidateId": candidate.ID,
		})
		return
	}

	topIDs := make([]string, 0, len(recs))
	for _, r := range recs {
		topIDs = append(topIDs, r.Opportunity.ID)
	}
	err := o.events.Append(ctx, models.EngineEvent{
		ID:            uuid.NewString(),
		Type:          models.EventRecommendationGenerated,
		CorrelationID: uuid.NewString(),
		CandidateID:   candidate.ID,
		Payload: map[string]interface{}{
			"count":          len(recs),
			"opportunityIds": topIDs,
		},
		CreatedAt: now,
	})
	if err != nil {
		o.log.Error("Could not append recommendation event", map[string]interface{}{
			"candidateId": candidate.ID,
			"error":       err.Error(),
		})
	}

	if err := o.dir.UpdateLastRecommendedAt(ctx, candidate.ID, now); err != nil {
		o.log.Error("Could not stamp last recommended at", map[string]interface{}{
			"candidateId": candidate.ID,
			"error":       err.Error(),
		})
	}
	if err := o.dir.IncrementOpportunityViews(ctx, topIDs); err != nil {
		o.log.Error("Could not bump opportunity view counters", map[string]interface{}{
			"candidateId": candidate.ID,
			"error":       err.Error(),
		})
	}
	o.freshness.Mark(ctx, candidate.ID, now)
}

// Summary projects a listing onto its recommendation slice.
func Summary(o *models.Opportunity) OpportunitySummary {
	return OpportunitySummary{
		ID:             o.ID,
		Title:          o.Title,
		Provider:       o.Provider.Name,
		StipendMonthly: o.StipendMonthly,
		City:           o.Location.City,
		Remote:         o.Flags.Remote,
		PostedAt:       o.PostedAt,
	}
}
