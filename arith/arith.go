//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package arith implements reusable arithmetic gadgets over the
// gate.Builder wire API: multiplexers, comparators, ripple adders,
// modular reduction and multiplication mod p, GF(2^n) arithmetic,
// 32-bit wraparound arithmetic, Hamming distance, and the
// Levenshtein DP core. Every gadget takes a contiguous range of
// input wires and appends new wires, returning the indices of its
// output wires; none of them retain state across calls.
package arith

import "github.com/markkurossi/bcfe/gate"

// Mux selects t if cond carries 1, otherwise f: out = cond ? t : f.
// Realized as ((t XOR f) AND cond) XOR f per bit.
func Mux(b *gate.Builder, cond gate.Wire, t, f []gate.Wire) []gate.Wire {
	t, f = zeroPad(b, t, f)
	out := make([]gate.Wire, len(t))
	for i := range t {
		w1 := b.Xor(t[i], f[i])
		w2 := b.And(w1, cond)
		out[i] = b.Xor(w2, f[i])
	}
	return out
}

// Neq returns a single wire carrying 1 iff a != b.
func Neq(b *gate.Builder, a, c []gate.Wire) gate.Wire {
	out := b.Xor(a[0], c[0])
	for i := 1; i < len(a); i++ {
		w := b.Xor(a[i], c[i])
		out = b.Or(out, w)
	}
	return out
}

// Gteq returns a single wire carrying 1 iff a >= c, using the
// ripple-carry identity carry' = a_i XOR ((a_i XOR carry) AND
// (c_i XOR carry)), MSB handling left to the caller's wire order
// (index 0 is the least significant bit, matching the rest of this
// package).
func Gteq(b *gate.Builder, a, c []gate.Wire) gate.Wire {
	carry := b.One()
	for i := 0; i < len(a); i++ {
		w1 := b.Xor(a[i], carry)
		w2 := b.Xor(c[i], carry)
		pre := b.And(w1, w2)
		carry = b.Xor(a[i], pre)
	}
	return carry
}

// Min returns min(a, c) and the "a >= c" indicator bit.
func Min(b *gate.Builder, a, c []gate.Wire) (out []gate.Wire, ge gate.Wire) {
	ge = Gteq(b, a, c)
	out = Mux(b, ge, c, a)
	return out, ge
}

// Add computes a + c as a len(a)+1 bit ripple-carry sum (first stage
// a half adder, the rest full adders); the extra top bit is the
// final carry out.
func Add(b *gate.Builder, a, c []gate.Wire) []gate.Wire {
	a, c = zeroPad(b, a, c)
	out := make([]gate.Wire, len(a)+1)
	out[0] = b.Xor(a[0], c[0])
	carry := b.And(a[0], c[0])
	for i := 1; i < len(a); i++ {
		w1 := b.Xor(a[i], c[i])
		out[i] = b.Xor(w1, carry)
		w2 := b.And(a[i], c[i])
		w3 := b.And(w1, carry)
		carry = b.Or(w2, w3)
	}
	out[len(a)] = carry
	return out
}

// Subtract computes a - c as len(a) bits together with a sign bit
// that is 1 iff a >= c (no borrow out of the top bit).
func Subtract(b *gate.Builder, a, c []gate.Wire) (out []gate.Wire, sign gate.Wire) {
	out = make([]gate.Wire, len(a))
	carry := b.One()
	for i := 0; i < len(a); i++ {
		w1 := b.Xor(a[i], carry)
		w2 := b.Xor(c[i], carry)
		preOut := b.Xor(a[i], w2)
		out[i] = b.Inv(preOut)
		preCarry := b.And(w1, w2)
		carry = b.Xor(a[i], preCarry)
	}
	return out, carry
}

// ReduceModP reduces in (known to lie in [0, 2p)) to [0, p) by
// conditionally subtracting p once. in is len(in) bits wide but its
// top bit is guaranteed zero after reduction, so the result is
// truncated to len(in)-1 bits.
func ReduceModP(b *gate.Builder, in []gate.Wire, p []int) []gate.Wire {
	pWires := make([]gate.Wire, len(in))
	for i := range in {
		if i < len(p) && p[i] == 1 {
			pWires[i] = b.One()
		} else {
			pWires[i] = b.Zero()
		}
	}
	subtracted, sign := Subtract(b, in, pWires)
	out := Mux(b, sign, subtracted, in)
	return out[:len(in)-1]
}

// AddModP adds two already-reduced operands mod p.
func AddModP(b *gate.Builder, a, c []gate.Wire, p []int) []gate.Wire {
	sum := Add(b, a, c)
	return ReduceModP(b, sum, p)
}

// MultiplyBy2ModP doubles an already-reduced operand mod p.
func MultiplyBy2ModP(b *gate.Builder, in []gate.Wire, p []int) []gate.Wire {
	shifted := append([]gate.Wire{b.Zero()}, in...)
	return ReduceModP(b, shifted, p)
}

// MultiplyModP multiplies two already-reduced operands mod p via
// MSB-first double-and-add.
func MultiplyModP(b *gate.Builder, a, c []gate.Wire, p []int) []gate.Wire {
	out := b.Zeros(len(a))
	for i := len(a) - 1; i >= 0; i-- {
		doubled := MultiplyBy2ModP(b, out, p)
		added := AddModP(b, doubled, c, p)
		out = Mux(b, a[i], added, doubled)
	}
	return out
}

// AddGF2N adds two GF(2^n) elements (bitwise XOR).
func AddGF2N(b *gate.Builder, a, c []gate.Wire) []gate.Wire {
	out := make([]gate.Wire, len(a))
	for i := range a {
		out[i] = b.Xor(a[i], c[i])
	}
	return out
}

// ReduceGF2NByIrredPoly reduces a value shifted out of the top of a
// GF(2^n) element by the supplied irreducible polynomial's low
// coefficients, conditioned on the bit shifted out (highCoeff).
func ReduceGF2NByIrredPoly(b *gate.Builder, in []gate.Wire, irredPoly []int, highCoeff gate.Wire) ([]gate.Wire, error) {
	out := make([]gate.Wire, len(in))
	for i, coeff := range irredPoly {
		switch coeff {
		case 1:
			out[i] = b.Xor(in[i], highCoeff)
		case 0:
			out[i] = in[i]
		default:
			return nil, errInvalidIrredCoeff
		}
	}
	return out, nil
}

// MultiplyGF2N multiplies two GF(2^n) elements given the
// irreducible polynomial's low n coefficients, via MSB-first
// shift-and-XOR.
func MultiplyGF2N(b *gate.Builder, a, c []gate.Wire, irredPoly []int) ([]gate.Wire, error) {
	out := b.Zeros(len(a))
	for i := len(a) - 1; i >= 0; i-- {
		highCoeff := out[len(out)-1]
		shifted := append([]gate.Wire{b.Zero()}, out[:len(out)-1]...)
		reduced, err := ReduceGF2NByIrredPoly(b, shifted, irredPoly, highCoeff)
		if err != nil {
			return nil, err
		}
		added := AddGF2N(b, reduced, c)
		out = Mux(b, a[i], added, reduced)
	}
	return out, nil
}

// Add32 adds two 32-bit operands mod 2^32, dropping the carry bit.
func Add32(b *gate.Builder, a, c []gate.Wire) []gate.Wire {
	sum := Add(b, a, c)
	return sum[:32]
}

// Multiply32 multiplies two 32-bit operands mod 2^32.
func Multiply32(b *gate.Builder, a, c []gate.Wire) []gate.Wire {
	out := b.Zeros(32)
	for i := 31; i >= 0; i-- {
		shifted := append([]gate.Wire{b.Zero()}, out[:31]...)
		added := Add32(b, shifted, c)
		out = Mux(b, a[i], added, shifted)
	}
	return out
}

// Hamming returns the popcount of the bitwise difference of a and
// c, as a binary number of width floor(log2(len))+1, by pairwise
// XOR followed by a tree of ripple adders.
func Hamming(b *gate.Builder, a, c []gate.Wire) []gate.Wire {
	a, c = zeroPad(b, a, c)
	sums := make([][]gate.Wire, len(a))
	for i := range a {
		sums[i] = []gate.Wire{b.Xor(a[i], c[i])}
	}
	for len(sums) > 1 {
		var next [][]gate.Wire
		for i := 0; i < len(sums); i += 2 {
			if i+1 < len(sums) {
				next = append(next, Add(b, sums[i], sums[i+1]))
			} else {
				next = append(next, sums[i])
			}
		}
		sums = next
	}
	width := 0
	for n := len(a); n > 0; n >>= 1 {
		width++
	}
	return sums[0][:width]
}

// LevenshteinCore computes one DP cell of the Huang et al. Levenshtein
// circuit: out = min(xCand + 1, yCand + 1, diagCand + (in1 != in2)).
// It takes m = min(xCand, yCand, diagCand) and adds (in1 != in2) when
// diagCand is no larger than the other two candidates, 1 otherwise;
// that final add makes out one bit wider than its three candidates.
func LevenshteinCore(b *gate.Builder, xCand, yCand, diagCand, in1, in2 []gate.Wire) []gate.Wire {
	min1, _ := Min(b, xCand, yCand)
	min2, isDiag := Min(b, min1, diagCand)
	neq := Neq(b, in1, in2)
	increment := Mux(b, isDiag, []gate.Wire{neq}, []gate.Wire{b.One()})
	return Add(b, min2, increment)
}

func zeroPad(b *gate.Builder, x, y []gate.Wire) ([]gate.Wire, []gate.Wire) {
	if len(x) == len(y) {
		return x, y
	}
	max := len(x)
	if len(y) > max {
		max = len(y)
	}
	rx := make([]gate.Wire, max)
	ry := make([]gate.Wire, max)
	zero := b.Zero()
	for i := 0; i < max; i++ {
		if i < len(x) {
			rx[i] = x[i]
		} else {
			rx[i] = zero
		}
		if i < len(y) {
			ry[i] = y[i]
		} else {
			ry[i] = zero
		}
	}
	return rx, ry
}
