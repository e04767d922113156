package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumi-engineer/nnstub/layer"
	"github.com/fumi-engineer/nnstub/layer/layertest"
	"github.com/fumi-engineer/nnstub/tensor"
)

var (
	_ layer.Layer = (*Sequential)(nil)
	_ layer.Layer = (*Block)(nil)
)

func stub(t *testing.T, value layertest.Value, shapes ...tensor.Shape) *layertest.Stub {
	t.Helper()
	s, err := layertest.New(shapes, layertest.WithValue(value), layertest.WithSeed(0))
	require.NoError(t, err)
	return s
}

func TestBlockResidual(t *testing.T) {
	shape := tensor.NewShape(2, 3)
	norm := stub(t, layertest.Fill(1), shape)
	mixer := stub(t, layertest.Fill(0.5), shape)
	b := NewBlock(norm, mixer)

	y := b.Forward(tensor.Ones(shape, tensor.F32))
	require.True(t, y.Shape().Equal(shape))
	for _, v := range y.DataPtr() {
		assert.Equal(t, float32(1.5), v)
	}
	assert.Equal(t, 1, norm.Calls())
	assert.Equal(t, 1, mixer.Calls())

	grad := tensor.Full(shape, tensor.F32, 2)
	assert.Equal(t, grad.Data(), b.Backward(grad).Data())
	assert.Empty(t, b.Parameters())
}

func TestBlockMixerShapeMismatchPanics(t *testing.T) {
	b := NewBlock(
		stub(t, layertest.Uniform(), tensor.NewShape(2, 3)),
		stub(t, layertest.Uniform(), tensor.NewShape(2, 4)),
	)
	assert.Panics(t, func() { b.Forward(tensor.Ones(tensor.NewShape(2, 3), tensor.F32)) })
}

func TestSequentialWithStubbedExtractor(t *testing.T) {
	extractor := stub(t, layertest.Fill(1), tensor.NewShape(2, 4))
	head := layer.NewLinear(4, 3, false)
	copy(head.Parameters()[0].DataPtr(), []float32{
		1, 0, 0, 0,
		0, 1, 1, 0,
		1, 1, 1, 1,
	})
	m := NewSequential(extractor, head)
	assert.Equal(t, 2, m.Len())

	input := tensor.Zeros(tensor.NewShape(5), tensor.F32)
	y := m.Forward(input)
	require.True(t, y.Shape().Equal(tensor.NewShape(2, 3)))
	assert.Equal(t, []float32{1, 2, 4, 1, 2, 4}, y.Data())

	g := m.Backward(tensor.Ones(tensor.NewShape(2, 3), tensor.F32))
	assert.True(t, g.Shape().Equal(input.Shape()))
	assert.Len(t, m.Parameters(), 1)
}

func TestPredictorFill(t *testing.T) {
	extractor := stub(t, layertest.Uniform(), tensor.NewShape(2, 16))
	head := stub(t, layertest.Fill(0.5), tensor.NewShape(2, 10), tensor.NewShape(2, BoxDim))
	p := NewPredictor(extractor, head)

	pred, err := p.Predict(tensor.Ones(tensor.NewShape(2, 3, 32, 32), tensor.F32))
	require.NoError(t, err)

	// all scores tie, so every row picks class 0
	assert.Equal(t, []int{0, 0}, pred.Labels)
	assert.Equal(t, []float32{0.5, 0.5}, pred.Scores)
	assert.True(t, pred.Locs.Shape().Equal(tensor.NewShape(2, BoxDim)))
	assert.Equal(t, 1, extractor.Calls())
	assert.Equal(t, 1, head.Calls())
}

func TestPredictorUniform(t *testing.T) {
	extractor := stub(t, layertest.Uniform(), tensor.NewShape(8, 16))
	head := stub(t, layertest.Uniform(), tensor.NewShape(8, 5), tensor.NewShape(8, BoxDim))
	p := NewPredictor(extractor, head)

	pred, err := p.Predict(nil)
	require.NoError(t, err)
	require.Len(t, pred.Labels, 8)
	for i, l := range pred.Labels {
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, 5)
		assert.GreaterOrEqual(t, pred.Scores[i], float32(0))
		assert.Less(t, pred.Scores[i], float32(1))
	}
}

func TestPredictorHeadOutputs(t *testing.T) {
	extractor := stub(t, layertest.Uniform(), tensor.NewShape(2, 16))
	head := stub(t, layertest.Uniform(), tensor.NewShape(2, 10))

	_, err := NewPredictor(extractor, head).Predict(nil)
	assert.ErrorIs(t, err, ErrHeadOutputs)
}

func TestPredictorShapeMismatch(t *testing.T) {
	extractor := stub(t, layertest.Uniform(), tensor.NewShape(2, 16))
	cases := map[string][]tensor.Shape{
		"locs rows":   {tensor.NewShape(2, 10), tensor.NewShape(3, BoxDim)},
		"locs width":  {tensor.NewShape(2, 10), tensor.NewShape(2, 5)},
		"scores rank": {tensor.NewShape(2, 10, 1), tensor.NewShape(2, BoxDim)},
		"no classes":  {tensor.NewShape(2, 0), tensor.NewShape(2, BoxDim)},
	}
	for name, shapes := range cases {
		t.Run(name, func(t *testing.T) {
			head := stub(t, layertest.Uniform(), shapes...)
			_, err := NewPredictor(extractor, head).Predict(nil)
			assert.ErrorIs(t, err, ErrShapeMismatch)
		})
	}
}
