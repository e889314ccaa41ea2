// internal/engine/engine.go
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/common/metrics"
	"internmatch-workers/internal/features"
	"internmatch-workers/internal/ml"
	"internmatch-workers/internal/models"
	"internmatch-workers/internal/recommend"
	"internmatch-workers/internal/risk"
	"internmatch-workers/internal/scoring"
)

// Lookups is the read surface the facade needs beyond what the
// orchestrator already consumes.
type Lookups interface {
	CandidateByID(ctx context.Context, id string) (*models.CandidateProfile, error)
	OpportunityByID(ctx context.Context, id string) (*models.Opportunity, error)
	ApplicationByID(ctx context.Context, id string) (*models.Application, error)
}

// EventAppender records engine events.
type EventAppender interface {
	Append(ctx context.Context, event models.EngineEvent) error
}

// ModelTrainer runs a full training pass over both models.
type ModelTrainer interface {
	TrainModels(ctx context.Context) (*ml.Outcome, error)
}

// SimilarSearcher finds ranked candidates for an opportunity.
type SimilarSearcher interface {
	SimilarCandidates(ctx context.Context, opportunityID string, limit int) ([]recommend.CandidateMatch, error)
}

// ScoreInput identifies the pair to evaluate. Inline payloads take
// precedence over IDs so not-yet-persisted profiles can be scored.
type ScoreInput struct {
	CandidateID   string                   `json:"candidateId,omitempty"`
	Candidate     *models.CandidateProfile `json:"candidate,omitempty"`
	OpportunityID string                   `json:"opportunityId,omitempty"`
	Opportunity   *models.Opportunity      `json:"opportunity,omitempty"`
}

// ScoreResult is the combined match evaluation for one pair.
type ScoreResult struct {
	MatchScore         int               `json:"matchScore"`
	Subscores          scoring.Subscores `json:"subscores"`
	ExplainReasons     []string          `json:"explainReasons"`
	DropoutProbability float64           `json:"dropoutProbability"`
	RiskLevel          string            `json:"riskLevel"`
}

// DropoutResult is the rule-based estimate, with the attrition model's
// probability alongside when one is loaded.
type DropoutResult struct {
	DropoutProbability float64       `json:"dropoutProbability"`
	RiskLevel          string        `json:"riskLevel"`
	Factors            []risk.Factor `json:"factors"`
	ModelProbability   *float64      `json:"modelProbability,omitempty"`
}

// Engine is the single entry point the task workers call into. It owns no
// state of its own; everything it serves comes from the wired components.
type Engine struct {
	lookups      Lookups
	scorer       *scoring.Engine
	estimator    *risk.Estimator
	extractor    *features.Extractor
	registry     *ml.Registry
	trainer      ModelTrainer
	orchestrator *recommend.Orchestrator
	similar      SimilarSearcher
	events       EventAppender
	log          logger.Logger
}

func New(
	lookups Lookups,
	scorer *scoring.Engine,
	estimator *risk.Estimator,
	extractor *features.Extractor,
	registry *ml.Registry,
	trainer ModelTrainer,
	orchestrator *recommend.Orchestrator,
	similar SimilarSearcher,
	events EventAppender,
	log logger.Logger,
) *Engine {
	return &Engine{
		lookups:      lookups,
		scorer:       scorer,
		estimator:    estimator,
		extractor:    extractor,
		registry:     registry,
		trainer:      trainer,
		orchestrator: orchestrator,
		similar:      similar,
		events:       events,
		log:          log,
	}
}

// ScoreOpportunity evaluates one candidate-opportunity pair.
func (e *Engine) ScoreOpportunity(ctx context.Context, input ScoreInput) (*ScoreResult, error) {
	candidate, err := e.resolveCandidate(ctx, input)
	if err != nil {
		return nil, err
	}
	opportunity, err := e.resolveOpportunity(ctx, input)
	if err != nil {
		return nil, err
	}

	score := e.scorer.Score(candidate, opportunity)
	estimate := e.estimator.Estimate(candidate, opportunity, nil)
	if score == nil || estimate == nil {
		return nil, cerrors.NewScoringFailedError("pair could not be evaluated")
	}

	metrics.ScoresComputed.Inc()
	metrics.ScoreDistribution.Observe(float64(score.MatchScore))

	return &ScoreResult{
		MatchScore:         score.MatchScore,
		Subscores:          score.Subscores,
		ExplainReasons:     score.Reasons,
		DropoutProbability: estimate.DropoutProbability,
		RiskLevel:          estimate.RiskLevel,
	}, nil
}

// GetTopKRecommendations returns the ranked page for a candidate.
func (e *Engine) GetTopKRecommendations(ctx context.Context, candidateID string, limit int, forceRefresh bool) ([]recommend.Recommendation, error) {
	recs, err := e.orchestrator.GetTopK(ctx, candidateID, limit, forceRefresh)
	if err != nil {
		return nil, err
	}
	metrics.RecommendationsGenerated.Inc()
	return recs, nil
}

// PredictDropoutProbability estimates dropout risk for a pair, optionally
// informed by an application's status history. Serving a model probability
// is recorded in the event sink.
func (e *Engine) PredictDropoutProbability(ctx context.Context, candidateID, opportunityID, applicationID string) (*DropoutResult, error) {
	candidate, err := e.lookups.CandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	opportunity, err := e.lookups.OpportunityByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}

	var app *models.Application
	if applicationID != "" {
		app, err = e.lookups.ApplicationByID(ctx, applicationID)
		if err != nil {
			return nil, err
		}
	}

	estimate := e.estimator.Estimate(candidate, opportunity, app)
	if estimate == nil {
		return nil, cerrors.NewScoringFailedError("pair could not be evaluated")
	}

	result := &DropoutResult{
		DropoutProbability: estimate.DropoutProbability,
		RiskLevel:          estimate.RiskLevel,
		Factors:            estimate.Factors,
	}

	if vec := e.extractor.Vector(candidate, opportunity, app, time.Now().UTC()); vec != nil {
		if p, predErr := e.registry.Predict(models.ModelAttrition, vec); predErr == nil {
			result.ModelProbability = &p
			metrics.PredictionsServed.WithLabelValues(models.ModelAttrition).Inc()
			e.recordPrediction(ctx, candidateID, opportunityID, p)
		}
	}
	return result, nil
}

// TrainModels runs a training pass. A concurrent run yields a skipped
// outcome rather than an error.
func (e *Engine) TrainModels(ctx context.Context) (*ml.Outcome, error) {
	start := time.Now()
	outcome, err := e.trainer.TrainModels(ctx)
	switch {
	case err != nil:
		metrics.TrainingRuns.WithLabelValues("failed").Inc()
	case outcome.Skipped:
		metrics.TrainingRuns.WithLabelValues("skipped").Inc()
	default:
		metrics.TrainingRuns.WithLabelValues("completed").Inc()
		metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	}
	return outcome, err
}

// Predict runs raw inference against a loaded model.
func (e *Engine) Predict(modelName string, featureVector []float64) (float64, error) {
	p, err := e.registry.Predict(modelName, featureVector)
	if err != nil {
		return 0, err
	}
	metrics.PredictionsServed.WithLabelValues(modelName).Inc()
	return p, nil
}

// SimilarCandidates ranks plausible candidates for one opportunity.
func (e *Engine) SimilarCandidates(ctx context.Context, opportunityID string, limit int) ([]recommend.CandidateMatch, error) {
	return e.similar.SimilarCandidates(ctx, opportunityID, limit)
}

func (e *Engine) resolveCandidate(ctx context.Context, input ScoreInput) (*models.CandidateProfile, error) {
	if input.Candidate != nil {
		return input.Candidate, nil
	}
	if input.CandidateID == "" {
		return nil, cerrors.NewInvalidRequestError("candidate or candidateId is required")
	}
	return e.lookups.CandidateByID(ctx, input.CandidateID)
}

func (e *Engine) resolveOpportunity(ctx context.Context, input ScoreInput) (*models.Opportunity, error) {
	if input.Opportunity != nil {
		return input.Opportunity, nil
	}
	if input.OpportunityID == "" {
		return nil, cerrors.NewInvalidRequestError("opportunity or opportunityId is required")
	}
	return e.lookups.OpportunityByID(ctx, input.OpportunityID)
}

func (e *Engine) recordPrediction(ctx context.Context, candidateID, opportunityID string, probability float64) {
	err := e.events.Append(ctx, models.EngineEvent{
		ID:            uuid.NewString(),
		Type:          models.EventModelPrediction,
		CorrelationID: uuid.NewString(),
		CandidateID:   candidateID,
		OpportunityID: opportunityID,
		Payload: map[string]interface{}{
			"model":       models.ModelAttrition,
			"probability": probability,
		},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		e.log.Error("Could not append prediction event", map[string]interface{}{
			"candidateId":   candidateID,
			"opportunityId": opportunityID,
			"error":         err.Error(),
		})
	}
}
