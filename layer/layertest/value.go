package layertest

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidValue is returned for a Value that is neither uniform nor a fill.
var ErrInvalidValue = errors.New("value must be 'uniform', int or float")

type valueKind uint8

const (
	kindUnset valueKind = iota
	kindUniform
	kindFill
)

// Value describes what a Stub fills its outputs with. The zero Value is
// invalid; build one with Uniform, Fill or ParseValue.
type Value struct {
	kind valueKind
	fill float64
}

// Uniform draws every element independently from U[0, 1).
func Uniform() Value {
	return Value{kind: kindUniform}
}

// Fill sets every element to v.
func Fill(v float64) Value {
	return Value{kind: kindFill, fill: v}
}

// ParseValue accepts exactly "uniform", or any number strconv.ParseFloat
// accepts, including "NaN", "Inf" and hex floats such as "0x1p-2".
// Surrounding whitespace is not trimmed.
func ParseValue(s string) (Value, error) {
	if s == "uniform" {
		return Uniform(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	return Fill(v), nil
}

// IsUniform reports whether v draws random values.
func (v Value) IsUniform() bool {
	return v.kind == kindUniform
}

// FillValue returns the fill constant and whether v is a fill.
func (v Value) FillValue() (float64, bool) {
	return v.fill, v.kind == kindFill
}

func (v Value) valid() bool {
	return v.kind == kindUniform || v.kind == kindFill
}

func (v Value) String() string {
	switch v.kind {
	case kindUniform:
		return "uniform"
	case kindFill:
		return strconv.FormatFloat(v.fill, 'g', -1, 64)
	default:
		return "invalid"
	}
}
