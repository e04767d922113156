package layer

import (
	"testing"

	"github.com/fumi-engineer/nnstub/tensor"
)

var _ Layer = (*Linear)(nil)

// W = [[1,0],[0,1],[1,1]], so y = x @ W^T = [[1,2,3],[3,4,7]]
func knownLinear(useBias bool) *Linear {
	l := NewLinear(2, 3, useBias)
	copy(l.weight.DataPtr(), []float32{
		1, 0,
		0, 1,
		1, 1,
	})
	return l
}

func TestLinearForward(t *testing.T) {
	input := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.NewShape(2, 2))
	output := knownLinear(false).Forward(input)

	if !output.Shape().Equal(tensor.NewShape(2, 3)) {
		t.Fatalf("expected shape [2, 3], got %v", output.Shape())
	}
	got := output.DataPtr()
	want := []float32{1, 2, 3, 3, 4, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestLinearForwardBatched(t *testing.T) {
	l := knownLinear(true)
	copy(l.bias.DataPtr(), []float32{10, 20, 30})

	input := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.NewShape(1, 2, 2))
	output := l.Forward(input)

	if !output.Shape().Equal(tensor.NewShape(1, 2, 3)) {
		t.Fatalf("expected shape [1, 2, 3], got %v", output.Shape())
	}
	if output.At(0, 1, 2) != 37 {
		t.Errorf("expected 37, got %f", output.At(0, 1, 2))
	}
}

func TestLinearBackward(t *testing.T) {
	l := knownLinear(true)
	input := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.NewShape(2, 2))
	l.Forward(input)

	gradInput := l.Backward(tensor.Ones(tensor.NewShape(2, 3), tensor.F32))
	if !gradInput.Shape().Equal(input.Shape()) {
		t.Fatalf("expected shape %v, got %v", input.Shape(), gradInput.Shape())
	}
	// Column sums of W: [2, 2]
	for i, v := range gradInput.DataPtr() {
		if v != 2 {
			t.Errorf("index %d: expected 2, got %f", i, v)
		}
	}

	grads := l.Gradients()
	if len(grads) != 2 {
		t.Fatalf("expected 2 gradients, got %d", len(grads))
	}
	// dW[o, i] = sum over rows of x[:, i]
	if grads[0].At(0, 0) != 4 || grads[0].At(2, 1) != 6 {
		t.Errorf("unexpected weight grad: %v", grads[0].Data())
	}
	if grads[1].At(1) != 2 {
		t.Errorf("expected bias grad 2, got %f", grads[1].At(1))
	}

	l.ZeroGrad()
	if l.Gradients()[0].Sum() != 0 {
		t.Error("ZeroGrad should clear weight grad")
	}
}

func TestLinearBackwardBeforeForward(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewLinear(2, 2, false).Backward(tensor.Ones(tensor.NewShape(1, 2), tensor.F32))
}

func TestLinearParameters(t *testing.T) {
	if n := len(NewLinear(4, 8, true).Parameters()); n != 2 {
		t.Errorf("expected 2 parameters, got %d", n)
	}
	l := NewLinear(4, 8, false)
	if n := len(l.Parameters()); n != 1 {
		t.Errorf("expected 1 parameter, got %d", n)
	}
	if l.InFeatures() != 4 || l.OutFeatures() != 8 {
		t.Errorf("unexpected features: %d -> %d", l.InFeatures(), l.OutFeatures())
	}
}
