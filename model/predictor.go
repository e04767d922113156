package model

import (
	"errors"
	"fmt"

	"github.com/fumi-engineer/nnstub/layer"
	"github.com/fumi-engineer/nnstub/tensor"
)

var (
	// ErrHeadOutputs is returned when the head does not return scores and offsets.
	ErrHeadOutputs = errors.New("head must return 2 outputs")
	// ErrShapeMismatch is returned when head outputs have unexpected shapes.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// BoxDim is the width of a box offset row (dy, dx, dh, dw).
const BoxDim = 4

// Prediction holds per-row results of a Predictor.
type Prediction struct {
	Labels []int
	Scores []float32
	Locs   *tensor.Tensor // [N, BoxDim]
}

// Predictor runs a feature extractor followed by a two-output head that
// returns class scores [N, C] and box offsets [N, BoxDim].
type Predictor struct {
	extractor layer.Layer
	head      layer.MultiLayer
}

// NewPredictor creates a predictor.
func NewPredictor(extractor layer.Layer, head layer.MultiLayer) *Predictor {
	return &Predictor{extractor: extractor, head: head}
}

// Predict labels each row with its highest scoring class.
func (p *Predictor) Predict(input *tensor.Tensor) (*Prediction, error) {
	features := p.extractor.Forward(input)
	outs := p.head.Outputs(features)
	if len(outs) != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrHeadOutputs, len(outs))
	}
	scores, locs := outs[0], outs[1]

	if scores.Shape().NDim() != 2 || scores.Shape().At(1) == 0 {
		return nil, fmt.Errorf("%w: scores %v, want [N, C] with C > 0", ErrShapeMismatch, scores.Shape())
	}
	n := scores.Shape().At(0)
	if !locs.Shape().Equal(tensor.NewShape(n, BoxDim)) {
		return nil, fmt.Errorf("%w: locs %v, want [%d, %d]", ErrShapeMismatch, locs.Shape(), n, BoxDim)
	}

	labels := scores.ArgMax()
	best := make([]float32, n)
	for i, l := range labels {
		best[i] = scores.At(i, l)
	}
	return &Prediction{Labels: labels, Scores: best, Locs: locs}, nil
}
