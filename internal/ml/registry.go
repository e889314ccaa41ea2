// internal/ml/registry.go
package ml

import (
	"sync/atomic"

	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/models"
)

// ModelSpec bundles the architecture and schedule for one named model.
type ModelSpec struct {
	Name        string
	InputSize   int
	Layers      []LayerSpec
	Train       TrainConfig
	MinExamples int
}

// MatchQualitySpec is the architecture for the match-quality classifier.
func MatchQualitySpec(inputSize int) ModelSpec {
	return ModelSpec{
		Name:      models.ModelMatchQuality,
		InputSize: inputSize,
		Layers: []LayerSpec{
			{Units: 128, Activation: ActivationReLU, L2: 1e-3, Dropout: 0.3},
			{Units: 64, Activation: ActivationReLU, L2: 1e-3, Dropout: 0.2},
			{Units: 32, Activation: ActivationReLU},
			{Units: 1, Activation: ActivationSigmoid},
		},
		Train: TrainConfig{
			LearningRate:    0.001,
			Epochs:          50,
			BatchSize:       32,
			ValidationSplit: 0.2,
		},
		MinExamples: 100,
	}
}

// AttritionSpec is the architecture for the attrition classifier.
func AttritionSpec(inputSize int) ModelSpec {
	return ModelSpec{
		Name:      models.ModelAttrition,
		InputSize: inputSize,
		Layers: []LayerSpec{
			{Units: 64, Activation: ActivationReLU, Dropout: 0.2},
			{Units: 32, Activation: ActivationReLU},
			{Units: 1, Activation: ActivationSigmoid},
		},
		Train: TrainConfig{
			LearningRate:    0.001,
			Epochs:          30,
			BatchSize:       16,
			ValidationSplit: 0.2,
		},
		MinExamples: 50,
	}
}

// Registry serves loaded models to concurrent inference callers. The full
// model map is swapped atomically, so a caller either sees the old set or
// the new set, never a half-loaded model.
type Registry struct {
	models atomic.Value // map[string]*Network
}

func NewRegistry() *Registry {
	r := &Registry{}
	r.models.Store(map[string]*Network{})
	return r
}

// Get returns a loaded model by name.
func (r *Registry) Get(name string) (*Network, bool) {
	m := r.models.Load().(map[string]*Network)
	n, ok := m[name]
	return n, ok
}

// Names lists the currently loaded model names.
func (r *Registry) Names() []string {
	m := r.models.Load().(map[string]*Network)
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}

// Put publishes a model under its name. The existing map is copied, never
// mutated, so in-flight Predict calls are unaffected.
func (r *Registry) Put(n *Network) {
	old := r.models.Load().(map[string]*Network)
	next := make(map[string]*Network, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[n.Name] = n
	r.models.Store(next)
}

// Replace swaps the entire model set in one publication.
func (r *Registry) Replace(models map[string]*Network) {
	next := make(map[string]*Network, len(models))
	for k, v := range models {
		next[k] = v
	}
	r.models.Store(next)
}

// Predict runs inference against the named model. Fails with a model-not-
// loaded error when the name has no published artifact.
func (r *Registry) Predict(name string, features []float64) (float64, error) {
	n, ok := r.Get(name)
	if !ok {
		return 0, cerrors.NewModelNotLoadedError(name)
	}
	return n.Predict(features)
}
