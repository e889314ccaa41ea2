package ml

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallNetwork(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	return NewNetwork("test", 2, []LayerSpec{
		{Units: 8, Activation: ActivationReLU},
		{Units: 1, Activation: ActivationSigmoid},
	}, rng)
}

// ==========================
// NETWORK TESTS
// ==========================

func TestNewNetwork_Shapes(t *testing.T) {
	n := smallNetwork(1)

	require.Len(t, n.Layers, 2)
	assert.Len(t, n.Layers[0].Weights, 8)
	assert.Len(t, n.Layers[0].Weights[0], 2)
	assert.Len(t, n.Layers[1].Weights, 1)
	assert.Len(t, n.Layers[1].Weights[0], 8)
	assert.Equal(t, 8*2+8+1*8+1, n.ParamCount())
	assert.Equal(t, 1, n.OutputSize())
}

func TestPredict_BoundedAndDeterministic(t *testing.T) {
	n := smallNetwork(1)
	input := []float64{0.3, -0.7}

	first, err := n.Predict(input)
	require.NoError(t, err)
	second, err := n.Predict(input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
}

func TestPredict_WrongInputLength(t *testing.T) {
	n := smallNetwork(1)

	_, err := n.Predict([]float64{1, 2, 3})

	assert.Error(t, err)
}

// ==========================
// TRAINING TESTS
// ==========================

func TestTrain_LearnsSeparableData(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := NewNetwork("test", 2, []LayerSpec{
		{Units: 8, Activation: ActivationReLU},
		{Units: 1, Activation: ActivationSigmoid},
	}, rng)

	// Label is 1 iff the first input exceeds 0.5, with a margin.
	inputs := make([][]float64, 0, 200)
	labels := make([]float64, 0, 200)
	for i := 0; i < 200; i++ {
		label := float64(i % 2)
		x := rng.Float64()*0.4 + 0.6*label // [0,0.4) or [0.6,1)
		inputs = append(inputs, []float64{x, rng.Float64()})
		labels = append(labels, label)
	}

	result := n.Train(inputs, labels, TrainConfig{
		LearningRate:    0.01,
		Epochs:          200,
		BatchSize:       16,
		ValidationSplit: 0.2,
	}, rng)

	assert.Less(t, result.FinalLoss, 0.5)
	assert.GreaterOrEqual(t, result.ValidationAccuracy, 0.8)
}

func TestTrain_WithDropoutAndL2(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := NewNetwork("test", 2, []LayerSpec{
		{Units: 16, Activation: ActivationReLU, Dropout: 0.2, L2: 1e-3},
		{Units: 1, Activation: ActivationSigmoid},
	}, rng)

	inputs := make([][]float64, 0, 120)
	labels := make([]float64, 0, 120)
	for i := 0; i < 120; i++ {
		label := float64(i % 2)
		inputs = append(inputs, []float64{label, 1 - label})
		labels = append(labels, label)
	}

	result := n.Train(inputs, labels, TrainConfig{
		LearningRate:    0.01,
		Epochs:          100,
		BatchSize:       16,
		ValidationSplit: 0.2,
	}, rng)

	assert.GreaterOrEqual(t, result.ValidationAccuracy, 0.8)

	// Predictions stay within probability bounds after training.
	p, err := n.Predict([]float64{1, 0})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}

func TestBCELoss(t *testing.T) {
	assert.InDelta(t, 0, bceLoss(1, 1), 1e-5)
	assert.InDelta(t, 0, bceLoss(0, 0), 1e-5)
	assert.Greater(t, bceLoss(1, 0.01), 4.0)
	// Clamped away from the asymptote, never infinite.
	assert.False(t, bceLoss(1, 0) > 1e9)
}
