// Package layer provides neural network layers built on package tensor.
package layer

import (
	"github.com/fumi-engineer/nnstub/tensor"
)

// Layer is the interface for single-output neural network layers.
type Layer interface {
	// Forward performs forward pass.
	Forward(input *tensor.Tensor) *tensor.Tensor
	// Backward performs backward pass.
	Backward(gradOutput *tensor.Tensor) *tensor.Tensor
	// Parameters returns the layer's trainable parameters.
	Parameters() []*tensor.Tensor
}

// MultiLayer is a layer that produces several outputs, such as a detection
// head returning scores and box offsets.
type MultiLayer interface {
	Outputs(inputs ...*tensor.Tensor) []*tensor.Tensor
}
