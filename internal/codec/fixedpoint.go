// Package codec maps fixed-width unsigned integers onto real ranges.
package codec

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Real is the floating point type decoded genes are expressed in.
type Real interface {
	constraints.Float
}

// Unsigned is the integer type genes are stored in.
type Unsigned interface {
	constraints.Unsigned
}

// Width returns the number of bits of I.
func Width[I Unsigned]() int {
	return bits.OnesCount64(uint64(^I(0)))
}

// MaxValue returns 2^nbits - 1 in I. nbits equal to the width of I yields all ones.
func MaxValue[I Unsigned](nbits int) I {
	if nbits <= 0 {
		return 0
	}
	if nbits >= Width[I]() {
		return ^I(0)
	}
	return (I(1) << nbits) - 1
}

// Decode maps bin in [0, 2^nbits-1] linearly onto [min, max].
// Both ends of the integer range decode exactly to min and max.
func Decode[R Real, I Unsigned](bin I, min, max R, nbits int) R {
	top := MaxValue[I](nbits)
	bin &= top
	switch {
	case top == 0 || bin == 0:
		return min
	case bin == top:
		return max
	}
	return min + (R(bin)/R(top))*(max-min)
}

// DecodeProbability is Decode over [0, 1].
func DecodeProbability[R Real, I Unsigned](bin I, nbits int) R {
	return Decode[R, I](bin, 0, 1, nbits)
}

// Step is the width of one quantization step, (max-min)/(2^nbits-1).
func Step[R Real, I Unsigned](min, max R, nbits int) R {
	top := MaxValue[I](nbits)
	if top == 0 {
		return max - min
	}
	return (max - min) / R(top)
}
