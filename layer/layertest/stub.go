// Package layertest provides a stub layer for testing code built on layers.
//
// A Stub returns tensors of preconfigured shapes, filled with a constant or
// with uniform random values, whatever it is called with. Substituting it for
// a real layer lets a test exercise model code without real tensor math:
//
//	extractor := layertest.MustNew([]tensor.Shape{tensor.NewShape(2, 16)})
//	head := layertest.MustNew(
//		[]tensor.Shape{tensor.NewShape(2, 10), tensor.NewShape(2, 4)},
//		layertest.WithValue(layertest.Fill(0.5)),
//	)
//	p := model.NewPredictor(extractor, head)
package layertest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/seehuhn/mt19937"

	"github.com/fumi-engineer/nnstub/tensor"
)

var (
	// ErrInvalidDType is returned for a dtype outside the tensor package's set.
	ErrInvalidDType = errors.New("invalid dtype")
	// ErrInvalidShape is returned for a shape with a negative dimension.
	ErrInvalidShape = errors.New("invalid shape")
)

// Stub is a layer that returns dummy tensors. A Stub is not safe for
// concurrent use; give each parallel subtest its own.
type Stub struct {
	shapes []tensor.Shape
	value  Value
	dtype  tensor.DType
	rng    *rand.Rand

	calls     int
	lastInput *tensor.Tensor
}

// Option configures a Stub.
type Option func(*Stub)

// WithValue sets what outputs are filled with. The default is Uniform().
func WithValue(v Value) Option {
	return func(s *Stub) {
		s.value = v
	}
}

// WithDType sets the dtype of the outputs. The default is tensor.F32.
func WithDType(d tensor.DType) Option {
	return func(s *Stub) {
		s.dtype = d
	}
}

// WithSeed makes uniform outputs reproducible by seeding a Mersenne Twister.
func WithSeed(seed int64) Option {
	return func(s *Stub) {
		s.rng = newMT(seed)
	}
}

// WithRand draws uniform outputs from r.
func WithRand(r *rand.Rand) Option {
	return func(s *Stub) {
		s.rng = r
	}
}

func newMT(seed int64) *rand.Rand {
	src := mt19937.New()
	src.Seed(seed)
	return rand.New(src)
}

// New creates a stub returning one tensor per entry of shapes.
func New(shapes []tensor.Shape, opts ...Option) (*Stub, error) {
	s := &Stub{
		shapes: make([]tensor.Shape, len(shapes)),
		value:  Uniform(),
		dtype:  tensor.F32,
	}
	copy(s.shapes, shapes)
	for _, opt := range opts {
		opt(s)
	}

	if !s.value.valid() {
		return nil, ErrInvalidValue
	}
	if !s.dtype.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDType, s.dtype)
	}
	if fill, ok := s.value.FillValue(); ok && s.dtype.IsInteger() && (math.IsNaN(fill) || math.IsInf(fill, 0)) {
		return nil, fmt.Errorf("%w: %v does not fit %s", ErrInvalidValue, fill, s.dtype)
	}
	for i, shape := range s.shapes {
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("%w: output %d: %v", ErrInvalidShape, i, err)
		}
	}
	if s.rng == nil {
		s.rng = newMT(time.Now().UnixNano())
	}
	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(shapes []tensor.Shape, opts ...Option) *Stub {
	s, err := New(shapes, opts...)
	if err != nil {
		panic(fmt.Sprintf("layertest: %v", err))
	}
	return s
}

func (s *Stub) array(shape tensor.Shape) *tensor.Tensor {
	if fill, ok := s.value.FillValue(); ok {
		return tensor.Full(shape, s.dtype, fill)
	}
	return tensor.Uniform(shape, s.dtype, s.rng)
}

// Call ignores its arguments and returns newly allocated outputs, one per
// configured shape in order.
func (s *Stub) Call(_ ...any) []*tensor.Tensor {
	s.calls++
	out := make([]*tensor.Tensor, len(s.shapes))
	for i, shape := range s.shapes {
		out[i] = s.array(shape)
	}
	return out
}

// Outputs is Call restricted to tensor arguments.
func (s *Stub) Outputs(_ ...*tensor.Tensor) []*tensor.Tensor {
	return s.Call()
}

// Forward returns the single output of a one-shape stub. It panics for any
// other number of shapes; use Call or Outputs for those.
func (s *Stub) Forward(input *tensor.Tensor) *tensor.Tensor {
	if len(s.shapes) != 1 {
		panic(fmt.Sprintf("layertest: Forward on stub with %d outputs, use Call", len(s.shapes)))
	}
	s.lastInput = input
	return s.Call()[0]
}

// Backward returns zeros shaped like the last Forward input, or like
// gradOutput if Forward was never called with a tensor. With neither it
// returns nil.
func (s *Stub) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	if s.lastInput != nil {
		return tensor.Zeros(s.lastInput.Shape(), s.lastInput.DType())
	}
	if gradOutput == nil {
		return nil
	}
	return tensor.Zeros(gradOutput.Shape(), gradOutput.DType())
}

// Parameters returns nil.
func (s *Stub) Parameters() []*tensor.Tensor {
	return nil
}

// Calls returns how many times outputs were produced.
func (s *Stub) Calls() int {
	return s.calls
}

// Shapes returns a copy of the configured output shapes.
func (s *Stub) Shapes() []tensor.Shape {
	out := make([]tensor.Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

// Value returns the configured fill.
func (s *Stub) Value() Value {
	return s.value
}

// DType returns the dtype of the outputs.
func (s *Stub) DType() tensor.DType {
	return s.dtype
}
