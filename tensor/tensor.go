package tensor

import (
	"fmt"
	"math/rand"
)

// Tensor represents a multi-dimensional array.
type Tensor struct {
	data  []float32
	shape Shape
	dtype DType
}

// New creates a zero-filled tensor with the given shape and dtype.
func New(shape Shape, dtype DType) *Tensor {
	return &Tensor{
		data:  make([]float32, shape.Numel()),
		shape: shape,
		dtype: dtype,
	}
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DType) *Tensor {
	return New(shape, dtype)
}

// Ones creates a ones-filled tensor.
func Ones(shape Shape, dtype DType) *Tensor {
	return Full(shape, dtype, 1)
}

// Full creates a tensor with every element set to value, rounded to dtype.
func Full(shape Shape, dtype DType, value float64) *Tensor {
	t := New(shape, dtype)
	v := dtype.Quantize(value)
	for i := range t.data {
		t.data[i] = v
	}
	return t
}

// Uniform creates a tensor with values drawn from U[0, 1) using rng, each
// rounded to dtype. Integer dtypes therefore come out as zeros.
func Uniform(shape Shape, dtype DType, rng *rand.Rand) *Tensor {
	t := New(shape, dtype)
	for i := range t.data {
		v := dtype.Quantize(rng.Float64())
		if v >= 1 {
			// rounding to a narrower type must not reach the open bound
			v = dtype.belowOne()
		}
		t.data[i] = v
	}
	return t
}

// FromSlice creates an F32 tensor from a copy of data.
func FromSlice(data []float32, shape Shape) *Tensor {
	if len(data) != shape.Numel() {
		panic(fmt.Sprintf("data length %d != shape numel %d", len(data), shape.Numel()))
	}
	d := make([]float32, len(data))
	copy(d, data)
	return &Tensor{
		data:  d,
		shape: shape,
		dtype: F32,
	}
}

// Randn creates a tensor with random normal values.
func Randn(shape Shape, dtype DType) *Tensor {
	return RandnWithStd(shape, dtype, 1)
}

// RandnWithStd creates a tensor with random normal values with given std.
func RandnWithStd(shape Shape, dtype DType, std float32) *Tensor {
	t := New(shape, dtype)
	for i := range t.data {
		t.data[i] = float32(rand.NormFloat64()) * std
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// DType returns the tensor's dtype.
func (t *Tensor) DType() DType {
	return t.dtype
}

// Data returns a copy of the underlying data.
func (t *Tensor) Data() []float32 {
	d := make([]float32, len(t.data))
	copy(d, t.data)
	return d
}

// DataPtr returns the underlying data (use with caution).
func (t *Tensor) DataPtr() []float32 {
	return t.data
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != t.shape.NDim() {
		panic(fmt.Sprintf("expected %d indices, got %d", t.shape.NDim(), len(indices)))
	}
	idx := 0
	strides := t.shape.Strides()
	for i, index := range indices {
		if index < 0 || index >= t.shape.At(i) {
			panic(fmt.Sprintf("index %d out of bounds for dim %d with size %d", index, i, t.shape.At(i)))
		}
		idx += index * strides[i]
	}
	return idx
}

// At returns the value at the given indices. A scalar takes no indices.
func (t *Tensor) At(indices ...int) float32 {
	return t.data[t.offset(indices)]
}

// Set sets the value at the given indices.
func (t *Tensor) Set(value float32, indices ...int) {
	t.data[t.offset(indices)] = value
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := FromSlice(t.data, t.shape)
	c.dtype = t.dtype
	return c
}

// Reshape returns a view sharing data (must have same numel).
func (t *Tensor) Reshape(newShape Shape) *Tensor {
	if t.shape.Numel() != newShape.Numel() {
		panic(fmt.Sprintf("cannot reshape %v to %v: different numel", t.shape, newShape))
	}
	return &Tensor{
		data:  t.data,
		shape: newShape,
		dtype: t.dtype,
	}
}

func (t *Tensor) zip(other *Tensor, f func(a, b float32) float32) *Tensor {
	if !t.shape.Equal(other.shape) {
		panic(fmt.Sprintf("shape mismatch: %v vs %v", t.shape, other.shape))
	}
	result := New(t.shape, t.dtype)
	for i := range t.data {
		result.data[i] = f(t.data[i], other.data[i])
	}
	return result
}

// Add performs element-wise addition.
func (t *Tensor) Add(other *Tensor) *Tensor {
	return t.zip(other, func(a, b float32) float32 { return a + b })
}

// Sub performs element-wise subtraction.
func (t *Tensor) Sub(other *Tensor) *Tensor {
	return t.zip(other, func(a, b float32) float32 { return a - b })
}

// Mul performs element-wise multiplication.
func (t *Tensor) Mul(other *Tensor) *Tensor {
	return t.zip(other, func(a, b float32) float32 { return a * b })
}

// Scale multiplies by a scalar.
func (t *Tensor) Scale(s float32) *Tensor {
	result := New(t.shape, t.dtype)
	for i, v := range t.data {
		result.data[i] = v * s
	}
	return result
}

// Matmul performs matrix multiplication.
// For 2D: [M, K] x [K, N] -> [M, N]
// For 3D: [B, M, K] x [B, K, N] -> [B, M, N]
func Matmul(a, b *Tensor) *Tensor {
	if a.shape.NDim() < 2 || b.shape.NDim() < 2 {
		panic("matmul requires at least 2D tensors")
	}

	aM, aK := a.shape.At(-2), a.shape.At(-1)
	bK, bN := b.shape.At(-2), b.shape.At(-1)
	if aK != bK {
		panic(fmt.Sprintf("matmul dimension mismatch: %d vs %d", aK, bK))
	}

	var batchSize int
	var resultShape Shape
	switch {
	case a.shape.NDim() == 2 && b.shape.NDim() == 2:
		batchSize = 1
		resultShape = NewShape(aM, bN)
	case a.shape.NDim() == 3 && b.shape.NDim() == 3 && a.shape.At(0) == b.shape.At(0):
		batchSize = a.shape.At(0)
		resultShape = NewShape(batchSize, aM, bN)
	default:
		panic(fmt.Sprintf("unsupported batch dimensions: %v x %v", a.shape, b.shape))
	}

	result := New(resultShape, a.dtype)
	for batch := 0; batch < batchSize; batch++ {
		aOff := batch * aM * aK
		bOff := batch * bK * bN
		cOff := batch * aM * bN
		for i := 0; i < aM; i++ {
			for j := 0; j < bN; j++ {
				var sum float32
				for k := 0; k < aK; k++ {
					sum += a.data[aOff+i*aK+k] * b.data[bOff+k*bN+j]
				}
				result.data[cOff+i*bN+j] = sum
			}
		}
	}
	return result
}

// Transpose transposes the last two dimensions.
func (t *Tensor) Transpose() *Tensor {
	if t.shape.NDim() < 2 {
		panic("transpose requires at least 2D tensor")
	}

	dims := t.shape.Dims()
	dims[len(dims)-1], dims[len(dims)-2] = dims[len(dims)-2], dims[len(dims)-1]
	result := New(NewShape(dims...), t.dtype)

	rows, cols := t.shape.At(-2), t.shape.At(-1)
	if rows*cols == 0 {
		return result
	}
	for batch := 0; batch < t.shape.Numel()/(rows*cols); batch++ {
		off := batch * rows * cols
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				result.data[off+j*rows+i] = t.data[off+i*cols+j]
			}
		}
	}
	return result
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float32 {
	var sum float32
	for _, v := range t.data {
		sum += v
	}
	return sum
}

// Mean returns the mean of all elements. An empty tensor has mean NaN.
func (t *Tensor) Mean() float32 {
	return t.Sum() / float32(len(t.data))
}

// ArgMax returns, for every vector along the last dimension, the index of its
// largest element. Ties resolve to the lowest index.
func (t *Tensor) ArgMax() []int {
	if t.shape.NDim() < 1 {
		panic("argmax requires at least 1 dimension")
	}
	last := t.shape.At(-1)
	if last == 0 {
		return make([]int, 0)
	}
	out := make([]int, len(t.data)/last)
	for v := range out {
		row := t.data[v*last : (v+1)*last]
		best := 0
		for i := 1; i < last; i++ {
			if row[i] > row[best] {
				best = i
			}
		}
		out[v] = best
	}
	return out
}
