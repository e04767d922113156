// Package model composes layers into models.
package model

import (
	"github.com/fumi-engineer/nnstub/layer"
	"github.com/fumi-engineer/nnstub/tensor"
)

// Sequential applies layers in order.
type Sequential struct {
	layers []layer.Layer
}

// NewSequential creates a Sequential over layers.
func NewSequential(layers ...layer.Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Forward feeds each layer's output to the next.
func (s *Sequential) Forward(input *tensor.Tensor) *tensor.Tensor {
	x := input
	for _, l := range s.layers {
		x = l.Forward(x)
	}
	return x
}

// Backward runs the layers' backward passes in reverse order.
func (s *Sequential) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	grad := gradOutput
	for i := len(s.layers) - 1; i >= 0; i-- {
		grad = s.layers[i].Backward(grad)
	}
	return grad
}

// Parameters returns all layer parameters in order.
func (s *Sequential) Parameters() []*tensor.Tensor {
	params := make([]*tensor.Tensor, 0)
	for _, l := range s.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// Len returns the number of layers.
func (s *Sequential) Len() int {
	return len(s.layers)
}
