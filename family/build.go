//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package family

import (
	"github.com/markkurossi/bcfe/arith"
	"github.com/markkurossi/bcfe/gate"
)

// fillParity wires inner-product-mod-2: sum over i of x[i]&y[i].
func fillParity(b *gate.Builder, x, y []gate.Wire) gate.Wire {
	sum := b.Zero()
	for i := range x {
		product := b.And(x[i], y[i])
		sum = b.Xor(sum, product)
	}
	return sum
}

// fillInnerProduct wires an inner product of len(x)/width mod-p
// residues, width bits wide, reduced by the little-endian modulus p.
func fillInnerProduct(b *gate.Builder, x, y []gate.Wire, width int, p []int) []gate.Wire {
	sum := b.Zeros(width)
	for i := 0; i+width <= len(x); i += width {
		product := arith.MultiplyModP(b, x[i:i+width], y[i:i+width], p)
		sum = arith.AddModP(b, sum, product, p)
	}
	return sum
}

// fillInnerProductDelta wires an inner product over the leading
// len(x)-deltaPoolSize*width bits of x/y, then folds in a masked
// selection from a deltaPoolSize-wide pool of additional mod-p
// values (the trailing width-bit groups of x) gated by deltaPoolSize
// single-bit selectors (the trailing bits of y).
func fillInnerProductDelta(b *gate.Builder, x, y []gate.Wire, width int, p []int, deltaPoolSize int) []gate.Wire {
	innerSize := len(x) - deltaPoolSize*width
	sum := fillInnerProduct(b, x[:innerSize], y[:innerSize], width, p)

	zetas := x[innerSize:]
	deltas := y[innerSize:]
	for i := 0; i < deltaPoolSize; i++ {
		masked := make([]gate.Wire, width)
		for j := 0; j < width; j++ {
			masked[j] = b.And(zetas[i*width+j], deltas[i])
		}
		sum = arith.AddModP(b, sum, masked, p)
	}
	return sum
}

// fillHamming wires the Hamming distance between the first and
// second halves of the input.
func fillHamming(b *gate.Builder, x, y []gate.Wire) []gate.Wire {
	return arith.Hamming(b, x, y)
}
