package model

import (
	"github.com/fumi-engineer/nnstub/layer"
	"github.com/fumi-engineer/nnstub/tensor"
)

// Block is a pre-norm residual block: x + mixer(norm(x)).
type Block struct {
	norm  layer.Layer
	mixer layer.Layer
}

// NewBlock creates a residual block around norm and mixer.
func NewBlock(norm, mixer layer.Layer) *Block {
	return &Block{norm: norm, mixer: mixer}
}

// Forward performs the block forward pass. The mixer output must have the
// input's shape.
func (b *Block) Forward(input *tensor.Tensor) *tensor.Tensor {
	normed := b.norm.Forward(input)
	return input.Add(b.mixer.Forward(normed)) // residual
}

// Backward sums the residual path and the path through mixer and norm.
func (b *Block) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	grad := b.mixer.Backward(gradOutput)
	grad = b.norm.Backward(grad)
	return gradOutput.Add(grad)
}

// Parameters returns norm then mixer parameters.
func (b *Block) Parameters() []*tensor.Tensor {
	params := make([]*tensor.Tensor, 0)
	params = append(params, b.norm.Parameters()...)
	params = append(params, b.mixer.Parameters()...)
	return params
}
