// internal/ml/network.go
package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// Activation names used by layer specs and serialized artifacts.
const (
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
)

// LayerSpec describes one dense layer to build.
type LayerSpec struct {
	Units      int     `json:"units"`
	Activation string  `json:"activation"`
	Dropout    float64 `json:"dropout,omitempty"` // applied during training only
	L2         float64 `json:"l2,omitempty"`
}

// Layer is one trained dense layer. Weights are [out][in].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
	Dropout    float64     `json:"dropout,omitempty"`
	L2         float64     `json:"l2,omitempty"`
}

// Network is a feed-forward binary classifier. Once trained it is treated as
// immutable; concurrent Predict calls are safe.
type Network struct {
	Name      string   `json:"name"`
	InputSize int      `json:"inputSize"`
	Layers    []*Layer `json:"layers"`
}

// NewNetwork builds an untrained network with He-initialized weights.
func NewNetwork(name string, inputSize int, specs []LayerSpec, rng *rand.Rand) *Network {
	n := &Network{Name: name, InputSize: inputSize, Layers: make([]*Layer, 0, len(specs))}
	fanIn := inputSize
	for _, spec := range specs {
		layer := &Layer{
			Weights:    make([][]float64, spec.Units),
			Biases:     make([]float64, spec.Units),
			Activation: spec.Activation,
			Dropout:    spec.Dropout,
			L2:         spec.L2,
		}
		scale := math.Sqrt(2.0 / float64(fanIn))
		for i := range layer.Weights {
			row := make([]float64, fanIn)
			for j := range row {
				row[j] = rng.NormFloat64() * scale
			}
			layer.Weights[i] = row
		}
		n.Layers = append(n.Layers, layer)
		fanIn = spec.Units
	}
	return n
}

// Predict runs pure inference. Dropout is inactive, so the output is
// deterministic for a given input.
func (n *Network) Predict(input []float64) (float64, error) {
	if len(input) != n.InputSize {
		return 0, fmt.Errorf("input length %d, want %d", len(input), n.InputSize)
	}
	out := input
	for _, layer := range n.Layers {
		out = layer.forward(out)
	}
	return out[0], nil
}

// ParamCount returns the total number of trainable parameters.
func (n *Network) ParamCount() int {
	count := 0
	for _, layer := range n.Layers {
		for _, row := range layer.Weights {
			count += len(row)
		}
		count += len(layer.Biases)
	}
	return count
}

// OutputSize is the width of the final layer.
func (n *Network) OutputSize() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return len(n.Layers[len(n.Layers)-1].Biases)
}

func (l *Layer) forward(input []float64) []float64 {
	out := make([]float64, len(l.Weights))
	for i, row := range l.Weights {
		sum := l.Biases[i]
		for j, w := range row {
			sum += w * input[j]
		}
		out[i] = activate(l.Activation, sum)
	}
	return out
}

func activate(name string, z float64) float64 {
	switch name {
	case ActivationReLU:
		if z < 0 {
			return 0
		}
		return z
	case ActivationSigmoid:
		return 1 / (1 + math.Exp(-z))
	default:
		return z
	}
}

func activateDerivative(name string, z float64) float64 {
	switch name {
	case ActivationReLU:
		if z < 0 {
			return 0
		}
		return 1
	case ActivationSigmoid:
		s := 1 / (1 + math.Exp(-z))
		return s * (1 - s)
	default:
		return 1
	}
}

// bceLoss is binary cross-entropy with the prediction clamped away from the
// asymptotes.
func bceLoss(label, pred float64) float64 {
	const eps = 1e-7
	p := math.Min(math.Max(pred, eps), 1-eps)
	return -(label*math.Log(p) + (1-label)*math.Log(1-p))
}
