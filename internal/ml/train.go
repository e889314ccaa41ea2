// internal/ml/train.go
package ml

import (
	"math"
	"math/rand"
)

// TrainConfig holds the optimizer and schedule settings for one training run.
type TrainConfig struct {
	LearningRate    float64
	Epochs          int
	BatchSize       int
	ValidationSplit float64
}

// TrainResult summarizes one completed run. ValidationIdx holds the sample
// indices of the held-out slice so callers can re-score it over a subset.
type TrainResult struct {
	FinalLoss          float64
	ValidationAccuracy float64
	ValidationIdx      []int
}

// adamState carries per-parameter first and second moments. Training-only,
// never serialized.
type adamState struct {
	mW, vW [][][]float64
	mB, vB [][]float64
	step   int
}

const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

func newAdamState(n *Network) *adamState {
	s := &adamState{
		mW: make([][][]float64, len(n.Layers)),
		vW: make([][][]float64, len(n.Layers)),
		mB: make([][]float64, len(n.Layers)),
		vB: make([][]float64, len(n.Layers)),
	}
	for l, layer := range n.Layers {
		s.mW[l] = zeroMatrix(len(layer.Weights), len(layer.Weights[0]))
		s.vW[l] = zeroMatrix(len(layer.Weights), len(layer.Weights[0]))
		s.mB[l] = make([]float64, len(layer.Biases))
		s.vB[l] = make([]float64, len(layer.Biases))
	}
	return s
}

// Train fits the network in place with mini-batch Adam on binary
// cross-entropy. Inputs and labels run parallel; labels are 0 or 1. The
// validation slice is held out before the first epoch and never trained on.
func (n *Network) Train(inputs [][]float64, labels []float64, cfg TrainConfig, rng *rand.Rand) TrainResult {
	order := rng.Perm(len(inputs))
	valCount := int(float64(len(inputs)) * cfg.ValidationSplit)
	trainIdx := order[:len(order)-valCount]
	valIdx := order[len(order)-valCount:]

	state := newAdamState(n)
	finalLoss := 0.0

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(len(trainIdx), func(i, j int) {
			trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i]
		})

		epochLoss := 0.0
		for start := 0; start < len(trainIdx); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(trainIdx) {
				end = len(trainIdx)
			}
			batch := trainIdx[start:end]
			epochLoss += n.trainBatch(inputs, labels, batch, cfg.LearningRate, state, rng)
		}
		if len(trainIdx) > 0 {
			finalLoss = epochLoss / float64(len(trainIdx))
		}
	}

	return TrainResult{
		FinalLoss:          finalLoss,
		ValidationAccuracy: n.accuracy(inputs, labels, valIdx),
		ValidationIdx:      valIdx,
	}
}

// trainBatch accumulates gradients over one mini-batch and applies a single
// Adam step. Returns the summed loss over the batch.
func (n *Network) trainBatch(inputs [][]float64, labels []float64, batch []int, lr float64, state *adamState, rng *rand.Rand) float64 {
	gradW := make([][][]float64, len(n.Layers))
	gradB := make([][]float64, len(n.Layers))
	for l, layer := range n.Layers {
		gradW[l] = zeroMatrix(len(layer.Weights), len(layer.Weights[0]))
		gradB[l] = make([]float64, len(layer.Biases))
	}

	loss := 0.0
	for _, idx := range batch {
		loss += n.backprop(inputs[idx], labels[idx], gradW, gradB, rng)
	}

	scale := 1.0 / float64(len(batch))
	state.step++
	corr1 := 1 - math.Pow(adamBeta1, float64(state.step))
	corr2 := 1 - math.Pow(adamBeta2, float64(state.step))

	for l, layer := range n.Layers {
		for i := range layer.Weights {
			for j := range layer.Weights[i] {
				g := gradW[l][i][j]*scale + layer.L2*layer.Weights[i][j]
				state.mW[l][i][j] = adamBeta1*state.mW[l][i][j] + (1-adamBeta1)*g
				state.vW[l][i][j] = adamBeta2*state.vW[l][i][j] + (1-adamBeta2)*g*g
				mHat := state.mW[l][i][j] / corr1
				vHat := state.vW[l][i][j] / corr2
				layer.Weights[i][j] -= lr * mHat / (math.Sqrt(vHat) + adamEps)
			}
			g := gradB[l][i] * scale
			state.mB[l][i] = adamBeta1*state.mB[l][i] + (1-adamBeta1)*g
			state.vB[l][i] = adamBeta2*state.vB[l][i] + (1-adamBeta2)*g*g
			mHat := state.mB[l][i] / corr1
			vHat := state.vB[l][i] / corr2
			layer.Biases[i] -= lr * mHat / (math.Sqrt(vHat) + adamEps)
		}
	}

	return loss
}

// backprop runs one forward/backward pass with inverted dropout and adds the
// sample's gradients into the accumulators. Returns the sample loss.
func (n *Network) backprop(input []float64, label float64, gradW [][][]float64, gradB [][]float64, rng *rand.Rand) float64 {
	layerInputs := make([][]float64, len(n.Layers))
	preActs := make([][]float64, len(n.Layers))
	masks := make([][]float64, len(n.Layers))

	a := input
	for l, layer := range n.Layers {
		layerInputs[l] = a
		z := make([]float64, len(layer.Weights))
		out := make([]float64, len(layer.Weights))
		for i, row := range layer.Weights {
			sum := layer.Biases[i]
			for j, w := range row {
				sum += w * a[j]
			}
			z[i] = sum
			out[i] = activate(layer.Activation, sum)
		}
		preActs[l] = z

		if layer.Dropout > 0 {
			keep := 1 - layer.Dropout
			mask := make([]float64, len(out))
			for i := range mask {
				if rng.Float64() < keep {
					mask[i] = 1 / keep
				}
				out[i] *= mask[i]
			}
			masks[l] = mask
		}
		a = out
	}

	pred := a[0]
	loss := bceLoss(label, pred)

	// Sigmoid output with BCE collapses to pred minus label.
	last := len(n.Layers) - 1
	delta := []float64{pred - label}

	for l := last; l >= 0; l-- {
		layer := n.Layers[l]
		for i, d := range delta {
			gradB[l][i] += d
			for j := range layer.Weights[i] {
				gradW[l][i][j] += d * layerInputs[l][j]
			}
		}
		if l == 0 {
			break
		}

		prev := n.Layers[l-1]
		next := make([]float64, len(prev.Biases))
		for j := range next {
			sum := 0.0
			for i, d := range delta {
				sum += layer.Weights[i][j] * d
			}
			if masks[l-1] != nil {
				sum *= masks[l-1][j]
			}
			next[j] = sum * activateDerivative(prev.Activation, preActs[l-1][j])
		}
		delta = next
	}

	return loss
}

func (n *Network) accuracy(inputs [][]float64, labels []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	correct := 0
	for _, i := range idx {
		pred, err := n.Predict(inputs[i])
		if err != nil {
			continue
		}
		if (pred > 0.5) == (labels[i] > 0.5) {
			correct++
		}
	}
	return float64(correct) / float64(len(idx))
}

func zeroMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
