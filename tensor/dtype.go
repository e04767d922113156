// Package tensor provides dense CPU tensors for layers and their test doubles.
//
// Storage is always a flat []float32 in row-major order. The DType records the
// element type a tensor stands for; values written through Full and Uniform are
// rounded to that type so integer and half precision tensors hold only values
// the real type could represent.
package tensor

import (
	"math"

	"github.com/x448/float16"
)

// DType represents the data type of tensor elements.
type DType uint8

const (
	F32 DType = iota
	F16
	BF16
	I32
	I64
)

// Size returns the byte size of each element.
func (d DType) Size() int {
	switch d {
	case F32, I32:
		return 4
	case F16, BF16:
		return 2
	case I64:
		return 8
	default:
		return 4
	}
}

// String returns the string representation of the dtype.
func (d DType) String() string {
	names := [...]string{"f32", "f16", "bf16", "i32", "i64"}
	if int(d) < len(names) {
		return names[d]
	}
	return "unknown"
}

// Valid reports whether d is one of the declared dtypes.
func (d DType) Valid() bool {
	return d <= I64
}

// IsInteger reports whether d is an integer type.
func (d DType) IsInteger() bool {
	return d == I32 || d == I64
}

// Quantize converts v to the nearest value representable in d.
//
// Integer types truncate toward zero and saturate at the type's range; NaN
// becomes 0. Storage is float32, so integers beyond 2^24 keep only 24
// significant bits. Half precision types round to nearest even.
func (d DType) Quantize(v float64) float32 {
	switch d {
	case F16:
		return float16.Fromfloat32(float32(v)).Float32()
	case BF16:
		return roundBF16(float32(v))
	case I32:
		return float32(truncate(v, math.MinInt32, maxI32))
	case I64:
		return float32(truncate(v, math.MinInt64, maxI64))
	default:
		return float32(v)
	}
}

// belowOne returns the largest value of d less than 1.
func (d DType) belowOne() float32 {
	switch d {
	case F16:
		return 1 - 1.0/2048
	case BF16:
		return 1 - 1.0/256
	case I32, I64:
		return 0
	default:
		return math.Nextafter32(1, 0)
	}
}

// Largest float32 values that do not exceed the integer maxima.
const (
	maxI32 = 2147483520          // 2^31 - 2^7
	maxI64 = 9223371487098961920 // 2^63 - 2^39
)

func truncate(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Trunc(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundBF16 keeps the upper 16 bits of the float32 encoding.
func roundBF16(f float32) float32 {
	bits := math.Float32bits(f)
	if f != f {
		return math.Float32frombits((bits | 0x00400000) &^ 0xffff)
	}
	bits += 0x7fff + (bits>>16)&1
	return math.Float32frombits(bits &^ 0xffff)
}
