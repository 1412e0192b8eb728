package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Activation names the non-linearity applied after a dense layer.
type Activation string

const (
	Linear  Activation = "linear"
	ReLU    Activation = "relu"
	Sigmoid Activation = "sigmoid"
	Softmax Activation = "softmax"
)

// Layer computes act(Weights·x + Bias). Weights is outputs x inputs.
type Layer struct {
	Weights    *mat.Dense
	Bias       *mat.VecDense
	Activation Activation
}

// Inputs returns the layer's input width.
func (l Layer) Inputs() int {
	_, c := l.Weights.Dims()
	return c
}

// Outputs returns the layer's output width.
func (l Layer) Outputs() int {
	r, _ := l.Weights.Dims()
	return r
}

// Network is a feed-forward stack of dense layers. It serves as either
// classifier: strip inputs are the feature vector, digit tiles are read in
// row-major order.
type Network struct {
	Layers []Layer
}

var (
	_ StripClassifier = (*Network)(nil)
	_ DigitClassifier = (*Network)(nil)
)

// Validate checks that consecutive layers agree on their widths and that the
// network maps inputs values to outputs values.
func (n *Network) Validate(inputs, outputs int) error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("network has no layers")
	}
	width := inputs
	for i, l := range n.Layers {
		if l.Weights == nil || l.Bias == nil {
			return fmt.Errorf("layer %d is missing weights or bias", i)
		}
		if l.Inputs() != width {
			return fmt.Errorf("layer %d expects %d inputs, got %d", i, l.Inputs(), width)
		}
		if l.Bias.Len() != l.Outputs() {
			return fmt.Errorf("layer %d has %d outputs but %d biases", i, l.Outputs(), l.Bias.Len())
		}
		switch l.Activation {
		case Linear, ReLU, Sigmoid, Softmax:
		default:
			return fmt.Errorf("layer %d has unknown activation %q", i, l.Activation)
		}
		width = l.Outputs()
	}
	if width != outputs {
		return fmt.Errorf("network produces %d outputs, want %d", width, outputs)
	}
	return nil
}

// Forward evaluates the network on x.
func (n *Network) Forward(x []float64) []float64 {
	v := mat.NewVecDense(len(x), append([]float64(nil), x...))
	for _, l := range n.Layers {
		var out mat.VecDense
		out.MulVec(l.Weights, v)
		out.AddVec(&out, l.Bias)
		activate(out.RawVector().Data, l.Activation)
		v = &out
	}
	return v.RawVector().Data
}

func activate(v []float64, a Activation) {
	switch a {
	case ReLU:
		for i := range v {
			v[i] = math.Max(0, v[i])
		}
	case Sigmoid:
		for i := range v {
			v[i] = 1 / (1 + math.Exp(-v[i]))
		}
	case Softmax:
		lse := floats.LogSumExp(v)
		for i := range v {
			v[i] = math.Exp(v[i] - lse)
		}
	}
}

func (n *Network) ScoreStrip(features []float32) [3]float32 {
	x := make([]float64, len(features))
	for i, v := range features {
		x[i] = float64(v)
	}
	var out [3]float32
	for i, v := range n.Forward(x) {
		if i < len(out) {
			out[i] = float32(v)
		}
	}
	return out
}

func (n *Network) Classify(tile *mat.Dense) [10]float32 {
	r, c := tile.Dims()
	x := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		x = append(x, tile.RawRowView(i)[:c]...)
	}
	var out [10]float32
	for i, v := range n.Forward(x) {
		if i < len(out) {
			out[i] = float32(v)
		}
	}
	return out
}
