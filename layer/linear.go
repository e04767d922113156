package layer

import (
	"fmt"
	"math"

	"github.com/fumi-engineer/nnstub/tensor"
)

// Linear implements a fully connected layer: y = xW^T + b.
type Linear struct {
	weight  *tensor.Tensor // [out, in]
	bias    *tensor.Tensor // [out] or nil
	inFeat  int
	outFeat int

	gradWeight *tensor.Tensor
	gradBias   *tensor.Tensor

	// cached for backward
	lastInput *tensor.Tensor
}

// NewLinear creates a linear layer with Kaiming-initialized weights.
func NewLinear(inFeatures, outFeatures int, useBias bool) *Linear {
	std := float32(math.Sqrt(2.0 / float64(inFeatures)))
	l := &Linear{
		weight:     tensor.RandnWithStd(tensor.NewShape(outFeatures, inFeatures), tensor.F32, std),
		inFeat:     inFeatures,
		outFeat:    outFeatures,
		gradWeight: tensor.Zeros(tensor.NewShape(outFeatures, inFeatures), tensor.F32),
	}
	if useBias {
		l.bias = tensor.Zeros(tensor.NewShape(outFeatures), tensor.F32)
		l.gradBias = tensor.Zeros(tensor.NewShape(outFeatures), tensor.F32)
	}
	return l
}

// flatten views t as [rows, last] and returns the leading dims.
func flatten(t *tensor.Tensor, last int) (*tensor.Tensor, []int) {
	dims := t.Shape().Dims()
	if len(dims) == 0 || dims[len(dims)-1] != last {
		panic(fmt.Sprintf("expected trailing dim %d, got shape %v", last, t.Shape()))
	}
	lead := dims[:len(dims)-1]
	rows := 1
	for _, d := range lead {
		rows *= d
	}
	return t.Reshape(tensor.NewShape(rows, last)), lead
}

// Forward maps [..., in] to [..., out].
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	l.lastInput = input.Clone()

	flat, lead := flatten(input, l.inFeat)
	output := tensor.Matmul(flat, l.weight.Transpose())

	if l.bias != nil {
		out := output.DataPtr()
		b := l.bias.DataPtr()
		for r := 0; r < flat.Shape().At(0); r++ {
			row := out[r*l.outFeat : (r+1)*l.outFeat]
			for i := range row {
				row[i] += b[i]
			}
		}
	}

	return output.Reshape(tensor.NewShape(append(lead, l.outFeat)...))
}

// Backward accumulates weight and bias gradients and returns the gradient
// with respect to the input.
func (l *Linear) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	if l.lastInput == nil {
		panic("backward called before forward")
	}

	flatGrad, _ := flatten(gradOutput, l.outFeat)
	flatInput, _ := flatten(l.lastInput, l.inFeat)

	gw := tensor.Matmul(flatGrad.Transpose(), flatInput)
	l.gradWeight = l.gradWeight.Add(gw)

	if l.bias != nil {
		gb := l.gradBias.DataPtr()
		g := flatGrad.DataPtr()
		for r := 0; r < flatGrad.Shape().At(0); r++ {
			for i := 0; i < l.outFeat; i++ {
				gb[i] += g[r*l.outFeat+i]
			}
		}
	}

	gradInput := tensor.Matmul(flatGrad, l.weight)
	return gradInput.Reshape(l.lastInput.Shape())
}

// Parameters returns weight and, if present, bias.
func (l *Linear) Parameters() []*tensor.Tensor {
	if l.bias != nil {
		return []*tensor.Tensor{l.weight, l.bias}
	}
	return []*tensor.Tensor{l.weight}
}

// Gradients returns the accumulated gradients in Parameters order.
func (l *Linear) Gradients() []*tensor.Tensor {
	if l.bias != nil {
		return []*tensor.Tensor{l.gradWeight, l.gradBias}
	}
	return []*tensor.Tensor{l.gradWeight}
}

// ZeroGrad resets the accumulated gradients.
func (l *Linear) ZeroGrad() {
	l.gradWeight = tensor.Zeros(l.gradWeight.Shape(), tensor.F32)
	if l.bias != nil {
		l.gradBias = tensor.Zeros(l.gradBias.Shape(), tensor.F32)
	}
}

// InFeatures returns input features.
func (l *Linear) InFeatures() int {
	return l.inFeat
}

// OutFeatures returns output features.
func (l *Linear) OutFeatures() int {
	return l.outFeat
}
