// internal/ml/trainer.go
package ml

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/features"
	"internmatch-workers/internal/models"
)

// Training state values. A trigger while training is skipped, never queued.
const (
	stateIdle int32 = iota
	stateTraining
)

const heuristicPairLimit = 500

// heuristicPositiveThreshold is the composite cutoff above which a pair with
// no observed outcome is pseudo-labeled positive.
const heuristicPositiveThreshold = 0.7

// TrainingData is the storage surface the trainer reads from.
type TrainingData interface {
	LabeledApplications(ctx context.Context, statuses []string) ([]models.Application, error)
	CandidateByID(ctx context.Context, id string) (*models.CandidateProfile, error)
	OpportunityByID(ctx context.Context, id string) (*models.Opportunity, error)
	RecentCandidates(ctx context.Context, limit int) ([]models.CandidateProfile, error)
	ActiveOpportunities(ctx context.Context, now time.Time) ([]models.Opportunity, error)
}

// Saver persists a trained artifact. Implemented by the model store.
type Saver interface {
	Save(n *Network) (models.ModelMetadata, error)
}

// Outcome reports one trainModels invocation. A nil report means that model
// was skipped for insufficient data, which is not an error.
type Outcome struct {
	Match     *models.TrainingReport `json:"matchModel"`
	Attrition *models.TrainingReport `json:"attritionModel"`
	Skipped   bool                   `json:"skipped"`
}

// Trainer assembles datasets, fits both models and publishes the results.
// Training runs are serialized by a two-state flag; scoring and inference
// are never blocked by a run.
type Trainer struct {
	data      TrainingData
	extractor *features.Extractor
	registry  *Registry
	saver     Saver
	log       logger.Logger
	state     atomic.Int32
	seed      int64
}

func NewTrainer(data TrainingData, extractor *features.Extractor, registry *Registry, saver Saver, log logger.Logger) *Trainer {
	return &Trainer{
		data:      data,
		extractor: extractor,
		registry:  registry,
		saver:     saver,
		log:       log,
		seed:      time.Now().UnixNano(),
	}
}

// TrainModels runs both model pipelines. A call while another run is active
// returns immediately with Skipped set.
func (t *Trainer) TrainModels(ctx context.Context) (*Outcome, error) {
	if !t.state.CompareAndSwap(stateIdle, stateTraining) {
		t.log.Warn("Training trigger skipped, a run is already in progress", nil)
		return &Outcome{Skipped: true}, nil
	}
	defer t.state.Store(stateIdle)

	now := time.Now().UTC()
	outcome := &Outcome{}

	matchExamples, err := t.matchDataset(ctx, now)
	if err != nil {
		return nil, err
	}
	report, err := t.trainOne(MatchQualitySpec(features.VectorLength), matchExamples)
	if err != nil {
		return nil, err
	}
	outcome.Match = report

	attritionExamples, err := t.attritionDataset(ctx, now)
	if err != nil {
		return nil, err
	}
	report, err = t.trainOne(AttritionSpec(features.VectorLength), attritionExamples)
	if err != nil {
		return nil, err
	}
	outcome.Attrition = report

	return outcome, nil
}

// trainOne fits a single model when the dataset clears its threshold. The
// trained network is persisted before it is published, so a failed save
// leaves the registry serving the previously loaded model.
func (t *Trainer) trainOne(spec ModelSpec, examples []models.TrainingExample) (*models.TrainingReport, error) {
	if len(examples) < spec.MinExamples {
		t.log.Info("Skipping training, not enough examples", map[string]interface{}{
			"model":     spec.Name,
			"examples":  len(examples),
			"threshold": spec.MinExamples,
		})
		return nil, nil
	}

	inputs := make([][]float64, len(examples))
	labels := make([]float64, len(examples))
	isObserved := make([]bool, len(examples))
	observed, heuristic := 0, 0
	for i, ex := range examples {
		inputs[i] = ex.Features
		labels[i] = ex.Label
		if ex.Provenance == models.ExampleHeuristic {
			heuristic++
		} else {
			isObserved[i] = true
			observed++
		}
	}

	rng := rand.New(rand.NewSource(t.seed))
	network := NewNetwork(spec.Name, spec.InputSize, spec.Layers, rng)

	started := time.Now()
	result := network.Train(inputs, labels, spec.Train, rng)
	elapsed := time.Since(started)

	// Pseudo-labeled rows would flatter the metric; score the held-out slice
	// over observed outcomes when any landed there.
	validationAccuracy := result.ValidationAccuracy
	var observedVal []int
	for _, i := range result.ValidationIdx {
		if isObserved[i] {
			observedVal = append(observedVal, i)
		}
	}
	if len(observedVal) > 0 {
		validationAccuracy = network.accuracy(inputs, labels, observedVal)
	}

	if _, err := t.saver.Save(network); err != nil {
		t.log.Error("Model trained but could not be persisted", map[string]interface{}{
			"model": spec.Name,
			"error": err.Error(),
		})
		return nil, err
	}
	t.registry.Put(network)

	t.log.Info("Model trained", map[string]interface{}{
		"model":              spec.Name,
		"examples":           len(examples),
		"finalLoss":          result.FinalLoss,
		"validationAccuracy": validationAccuracy,
		"durationMs":         elapsed.Milliseconds(),
	})

	return &models.TrainingReport{
		Model:              spec.Name,
		Examples:           len(examples),
		ObservedExamples:   observed,
		HeuristicExamples:  heuristic,
		Epochs:             spec.Train.Epochs,
		FinalLoss:          result.FinalLoss,
		ValidationAccuracy: validationAccuracy,
		DurationMs:         elapsed.Milliseconds(),
	}, nil
}

// matchDataset builds observed examples from application outcomes plus
// heuristic pseudo-labels for pairs with no application. Every example is
// tagged with its provenance so evaluation can separate the two populations.
func (t *Trainer) matchDataset(ctx context.Context, now time.Time) ([]models.TrainingExample, error) {
	statuses := []string{
		models.StatusShortlisted,
		models.StatusSelected,
		models.StatusRejected,
		models.StatusWithdrawn,
		models.StatusCompleted,
	}
	apps, err := t.data.LabeledApplications(ctx, statuses)
	if err != nil {
		return nil, err
	}

	var examples []models.TrainingExample
	applied := make(map[string]bool, len(apps))

	for i := range apps {
		app := &apps[i]
		applied[app.CandidateID+"|"+app.OpportunityID] = true

		vec, ok := t.pairVector(ctx, app.CandidateID, app.OpportunityID, app, now)
		if !ok {
			continue
		}
		label := 0.0
		if app.Status == models.StatusSelected || app.Status == models.StatusShortlisted {
			label = 1.0
		}
		examples = append(examples, models.TrainingExample{
			Features:   vec,
			Label:      label,
			Provenance: models.ExampleObserved,
		})
	}

	candidates, err := t.data.RecentCandidates(ctx, 50)
	if err != nil {
		return nil, err
	}
	opportunities, err := t.data.ActiveOpportunities(ctx, now)
	if err != nil {
		return nil, err
	}

	pairs := 0
	for i := range candidates {
		for j := range opportunities {
			if pairs >= heuristicPairLimit {
				break
			}
			c, o := &candidates[i], &opportunities[j]
			if c.ID == "" || applied[c.ID+"|"+o.ID] {
				continue
			}
			vec := t.extractor.Vector(c, o, nil, now)
			if vec == nil {
				continue
			}
			composite := features.SkillMatch(c.Skills, o.RequiredSkills)*0.4 +
				features.LocationMatch(c, o)*0.3 +
				features.StipendMatch(c.Preferences, o.StipendMonthly)*0.3
			label := 0.0
			if composite > heuristicPositiveThreshold {
				label = 1.0
			}
			examples = append(examples, models.TrainingExample{
				Features:   vec,
				Label:      label,
				Provenance: models.ExampleHeuristic,
			})
			pairs++
		}
	}

	return examples, nil
}

// attritionDataset uses only decisively resolved applications. Rejections
// and withdrawals are the positive class.
func (t *Trainer) attritionDataset(ctx context.Context, now time.Time) ([]models.TrainingExample, error) {
	statuses := []string{
		models.StatusSelected,
		models.StatusRejected,
		models.StatusWithdrawn,
	}
	apps, err := t.data.LabeledApplications(ctx, statuses)
	if err != nil {
		return nil, err
	}

	var examples []models.TrainingExample
	for i := range apps {
		app := &apps[i]
		vec, ok := t.pairVector(ctx, app.CandidateID, app.OpportunityID, app, now)
		if !ok {
			continue
		}
		label := 0.0
		if app.Status == models.StatusRejected || app.Status == models.StatusWithdrawn {
			label = 1.0
		}
		examples = append(examples, models.TrainingExample{
			Features:   vec,
			Label:      label,
			Provenance: models.ExampleObserved,
		})
	}
	return examples, nil
}

// pairVector resolves both entities and extracts the feature vector. Pairs
// with missing records are logged and dropped rather than failing the run.
func (t *Trainer) pairVector(ctx context.Context, candidateID, opportunityID string, app *models.Application, now time.Time) ([]float64, bool) {
	c, err := t.data.CandidateByID(ctx, candidateID)
	if err != nil || c == nil {
		t.log.Warn("Dropping training pair, candidate unavailable", map[string]interface{}{
			"candidateId": candidateID,
		})
		return nil, false
	}
	o, err := t.data.OpportunityByID(ctx, opportunityID)
	if err != nil || o == nil {
		t.log.Warn("Dropping training pair, opportunity unavailable", map[string]interface{}{
			"opportunityId": opportunityID,
		})
		return nil, false
	}
	vec := t.extractor.Vector(c, o, app, now)
	return vec, vec != nil
}
