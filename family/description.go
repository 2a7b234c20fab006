//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package family builds the universal garbled circuits for the four
// supported function families (parity, inner-product-mod-p with an
// optional Delta gadget, Hamming distance, Levenshtein distance) and
// describes how raw garbled-circuit output bits and key material map
// onto the values those families compute.
package family

import (
	"fmt"
	"math"

	"github.com/markkurossi/mpc/circuit"

	"github.com/markkurossi/bcfe/gate"
)

// Kind identifies which of the four supported families a Description
// builds.
type Kind int

// The supported circuit families.
const (
	Parity Kind = iota
	InnerProductModP
	InnerProductModPDelta
	Hamming
	Levenshtein
)

func (k Kind) String() string {
	switch k {
	case Parity:
		return "parity"
	case InnerProductModP:
		return "inner-product-mod-p"
	case InnerProductModPDelta:
		return "inner-product-mod-p-delta"
	case Hamming:
		return "hamming"
	case Levenshtein:
		return "levenshtein"
	default:
		return fmt.Sprintf("family.Kind(%d)", int(k))
	}
}

// Description fixes the shape of a family's universal circuit: its
// input/circuit/output wire counts and, for the families that need
// them, a modulus or alphabet width. A Description does not carry
// any instance data; BuildUniversal produces the same *circuit.Circuit
// for every instance of the same shape.
type Description struct {
	Kind          Kind
	CircuitSize   int
	InputSize     int
	OutputSize    int
	Mod           int
	ModBits       int
	DeltaPoolSize int
	AlphabetBits  int
	InputLen      int
	CircuitLen    int
}

// NewParity describes an inner-product-mod-2 (parity) circuit over
// size-bit vectors.
func NewParity(size int) *Description {
	return &Description{
		Kind:        Parity,
		CircuitSize: size,
		InputSize:   size,
		OutputSize:  1,
	}
}

// NewInnerProductModP describes an inner product of numbers
// mod-p integers, each encoded in ceil(log2(mod)) bits.
func NewInnerProductModP(mod, numbers int) *Description {
	modBits := modBitsOf(mod)
	return &Description{
		Kind:        InnerProductModP,
		CircuitSize: modBits * numbers,
		InputSize:   modBits * numbers,
		OutputSize:  modBits,
		Mod:         mod,
		ModBits:     modBits,
	}
}

// NewInnerProductModPDelta describes an inner-product-mod-p circuit
// augmented with a deltaPoolSize-wide Delta gadget, as used by the
// GVW bounded-collusion lift to mask a single-query key's output.
func NewInnerProductModPDelta(mod, numbers, deltaPoolSize int) *Description {
	modBits := modBitsOf(mod)
	return &Description{
		Kind:          InnerProductModPDelta,
		CircuitSize:   modBits*numbers + deltaPoolSize,
		InputSize:     modBits * (numbers + deltaPoolSize),
		OutputSize:    modBits,
		Mod:           mod,
		ModBits:       modBits,
		DeltaPoolSize: deltaPoolSize,
	}
}

// NewHamming describes a Hamming-distance circuit over size-bit
// vectors.
func NewHamming(size int) *Description {
	return &Description{
		Kind:        Hamming,
		CircuitSize: size,
		InputSize:   size,
		OutputSize:  int(math.Floor(math.Log2(float64(size)))) + 1,
	}
}

// NewLevenshtein describes a Levenshtein-distance circuit between an
// inputLen-symbol string and a circuitLen-symbol string, each symbol
// alphabetBits wide.
func NewLevenshtein(inputLen, circuitLen, alphabetBits int) *Description {
	max := inputLen
	if circuitLen > max {
		max = circuitLen
	}
	return &Description{
		Kind:         Levenshtein,
		CircuitSize:  circuitLen * alphabetBits,
		InputSize:    inputLen * alphabetBits,
		OutputSize:   int(math.Ceil(math.Log2(float64(max + 1)))),
		AlphabetBits: alphabetBits,
		InputLen:     inputLen,
		CircuitLen:   circuitLen,
	}
}

// modBitsOf returns ceil(log2(mod)), the bit width needed to encode
// any residue in [0, mod).
func modBitsOf(mod int) int {
	return int(math.Ceil(math.Log2(float64(mod))))
}

// modBitsLE decomposes mod's low n bits into a little-endian 0/1 slice,
// matching the arith package's modulus representation.
func modBitsLE(mod, n int) []int {
	out := make([]int, n)
	m := mod
	for i := 0; i < n; i++ {
		out[i] = m & 1
		m >>= 1
	}
	return out
}

// ReturnVals decodes a universal circuit's raw output bits into the
// family's natural result representation: a single integer for
// parity/inner-product/Levenshtein, one bit per output wire for
// Hamming.
func (d *Description) ReturnVals(vals []bool) []int {
	switch d.Kind {
	case Parity:
		out := make([]int, d.OutputSize)
		for i := range out {
			out[i] = boolToInt(vals[i])
		}
		return out

	case InnerProductModP, InnerProductModPDelta:
		out := make([]int, len(vals)/d.ModBits)
		for i := range out {
			v := 0
			for j := 0; j < d.ModBits; j++ {
				v += boolToInt(vals[i*d.ModBits+j]) << uint(j)
			}
			out[i] = v
		}
		return out

	case Hamming:
		out := make([]int, d.OutputSize)
		for i := range out {
			out[i] = boolToInt(vals[i])
		}
		return out

	case Levenshtein:
		v := 0
		for i := 0; i < d.OutputSize; i++ {
			v += boolToInt(vals[i]) << uint(i)
		}
		return []int{v}

	default:
		return nil
	}
}

// MsgBit returns the i-th bit of the message-side input encoding for
// this family: msg holds per-family units (individual bits for
// parity/Hamming, mod-p residues for inner product, alphabet symbols
// for Levenshtein).
func (d *Description) MsgBit(msg []int, i int) int {
	switch d.Kind {
	case Parity, Hamming:
		return msg[i]

	case InnerProductModP, InnerProductModPDelta:
		return (msg[i/d.ModBits] >> uint(i%d.ModBits)) & 1

	case Levenshtein:
		return (msg[i/d.AlphabetBits] >> uint(i%d.AlphabetBits)) & 1

	default:
		return 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// BuildUniversal constructs the universal garbled circuit for this
// description: a *circuit.Circuit with InputSize+CircuitSize single
// bit inputs (message-side wires first, instance-side wires second)
// and OutputSize single bit outputs.
func (d *Description) BuildUniversal() (*circuit.Circuit, error) {
	n := d.InputSize + d.CircuitSize
	b := gate.NewBuilder(n)

	x := make([]gate.Wire, d.InputSize)
	y := make([]gate.Wire, d.CircuitSize)
	for i := 0; i < d.InputSize; i++ {
		x[i] = gate.Wire(i)
	}
	for i := 0; i < d.CircuitSize; i++ {
		y[i] = gate.Wire(d.InputSize + i)
	}

	var out []gate.Wire
	switch d.Kind {
	case Parity:
		out = []gate.Wire{fillParity(b, x, y)}

	case InnerProductModP:
		p := modBitsLE(d.Mod, d.ModBits)
		out = fillInnerProduct(b, x, y, d.ModBits, p)

	case InnerProductModPDelta:
		p := modBitsLE(d.Mod, d.ModBits)
		out = fillInnerProductDelta(b, x, y, d.ModBits, p, d.DeltaPoolSize)

	case Hamming:
		out = fillHamming(b, x, y)

	case Levenshtein:
		out = fillLevenshtein(b, x, y, d.InputLen, d.CircuitLen, d.AlphabetBits)

	default:
		return nil, fmt.Errorf("family: unknown circuit kind %v", d.Kind)
	}

	inputs := circuit.IO{
		{Name: "msg", Type: "u", Size: d.InputSize},
		{Name: "instance", Type: "u", Size: d.CircuitSize},
	}
	outputs := circuit.IO{
		{Name: "result", Type: "u", Size: len(out)},
	}
	return b.Finish(inputs, outputs, out)
}
