// internal/models/model.go
package models

import "time"

// Model names used across the training subsystem and the registry.
const (
	ModelMatchQuality = "match-quality"
	ModelAttrition    = "attrition"
)

// TrainingExample provenance values. Heuristic examples are pseudo-labeled
// and must be excluded from reported accuracy.
const (
	ExampleObserved  = "observed"
	ExampleHeuristic = "heuristic"
)

// TrainingExample pairs a feature vector with a binary label. Transient;
// exists only during a training run.
type TrainingExample struct {
	Features   []float64 `json:"features"`
	Label      float64   `json:"label"` // 0 or 1
	Provenance string    `json:"provenance"`
}

// ModelMetadata is the sidecar persisted next to a model artifact.
type ModelMetadata struct {
	Name        string    `json:"name"`
	Version     int       `json:"version"`
	SavedAt     time.Time `json:"savedAt"`
	InputShape  int       `json:"inputShape"`
	OutputShape int       `json:"outputShape"`
	ParamCount  int       `json:"paramCount"`
	LayerCount  int       `json:"layerCount"`
}

// TrainingReport summarizes a completed training run for one model.
type TrainingReport struct {
	Model              string  `json:"model"`
	Examples           int     `json:"examples"`
	ObservedExamples   int     `json:"observedExamples"`
	HeuristicExamples  int     `json:"heuristicExamples"`
	Epochs             int     `json:"epochs"`
	FinalLoss          float64 `json:"finalLoss"`
	ValidationAccuracy float64 `json:"validationAccuracy"`
	DurationMs         int64   `json:"durationMs"`
}
