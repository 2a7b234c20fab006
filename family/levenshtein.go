//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package family

import (
	"math"

	"github.com/markkurossi/bcfe/arith"
	"github.com/markkurossi/bcfe/gate"
)

// fillLevenshtein wires the Huang et al. dynamic-programming
// Levenshtein circuit between an inputLen-symbol string (the
// message side, x) and a circuitLen-symbol string (the instance
// side, y), each symbol alphabetBits wide. vals[i][j] holds the
// edit distance between the first i symbols of x and the first j
// symbols of y; row/column zero are literal constants, and every
// other cell is one call to arith.LevenshteinCore.
func fillLevenshtein(b *gate.Builder, x, y []gate.Wire, inputLen, circuitLen, alphabetBits int) []gate.Wire {
	vals := make([][][]gate.Wire, inputLen+1)
	for i := range vals {
		vals[i] = make([][]gate.Wire, circuitLen+1)
	}

	cellBits := func(i, j int) int {
		max := i
		if j > max {
			max = j
		}
		return int(math.Ceil(math.Log2(float64(max + 1))))
	}

	for i := 0; i <= inputLen; i++ {
		vals[i][0] = b.Const(uint64(i), cellBits(i, 0))
	}
	for j := 0; j <= circuitLen; j++ {
		vals[0][j] = b.Const(uint64(j), cellBits(0, j))
	}

	for i := 1; i <= inputLen; i++ {
		for j := 1; j <= circuitLen; j++ {
			width := cellBits(i, j)

			xCand := padTo(b, vals[i-1][j], width)
			yCand := padTo(b, vals[i][j-1], width)
			diagCand := padTo(b, vals[i-1][j-1], width)

			in1 := x[(i-1)*alphabetBits : i*alphabetBits]
			in2 := y[(j-1)*alphabetBits : j*alphabetBits]

			// LevenshteinCore's ripple add carries one bit past
			// width; the DP bound guarantees that carry is always
			// zero, so it is dropped rather than wired to a larger
			// cell, matching the reference table-fill's resize-up/
			// resize-down around its add() call.
			vals[i][j] = arith.LevenshteinCore(b, xCand, yCand, diagCand, in1, in2)[:width]
		}
	}

	return vals[inputLen][circuitLen]
}

// padTo right-pads w with constant-zero wires up to width bits,
// mirroring the original table-fill's push_back(zeroWire) when a
// neighboring cell is narrower than the current one.
func padTo(b *gate.Builder, w []gate.Wire, width int) []gate.Wire {
	if len(w) >= width {
		return w
	}
	out := make([]gate.Wire, width)
	copy(out, w)
	zero := b.Zero()
	for i := len(w); i < width; i++ {
		out[i] = zero
	}
	return out
}
