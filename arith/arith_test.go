//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package arith

import (
	"math/big"
	"testing"

	"github.com/markkurossi/mpc/circuit"

	"github.com/markkurossi/bcfe/gate"
)

// build wires one bit at a time for each of n operand bit-widths,
// wires the supplied gadget over them, and returns a *circuit.Circuit
// ready for circuit.Compute.
func buildBinary(t *testing.T, width int, gadget func(b *gate.Builder, a, c []gate.Wire) []gate.Wire, outWidth int) *circuit.Circuit {
	t.Helper()
	b := gate.NewBuilder(2 * width)
	a := make([]gate.Wire, width)
	c := make([]gate.Wire, width)
	for i := 0; i < width; i++ {
		a[i] = gate.Wire(i)
		c[i] = gate.Wire(width + i)
	}
	out := gadget(b, a, c)
	if len(out) != outWidth {
		t.Fatalf("gadget returned %d output wires, want %d", len(out), outWidth)
	}
	inputs := circuit.IO{
		{Name: "a", Type: "u", Size: width},
		{Name: "c", Type: "u", Size: width},
	}
	outputs := circuit.IO{
		{Name: "r", Type: "u", Size: outWidth},
	}
	circ, err := b.Finish(inputs, outputs, out)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return circ
}

func eval(t *testing.T, circ *circuit.Circuit, a, c uint64) *big.Int {
	t.Helper()
	results, err := circ.Compute([]*big.Int{big.NewInt(int64(a)), big.NewInt(int64(c))})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return results[0]
}

func TestAdd(t *testing.T) {
	const width = 8
	circ := buildBinary(t, width, Add, width+1)
	tests := []struct{ a, c uint64 }{
		{0, 0}, {1, 1}, {200, 55}, {255, 255}, {17, 240},
	}
	for _, tc := range tests {
		got := eval(t, circ, tc.a, tc.c)
		want := tc.a + tc.c
		if got.Uint64() != want {
			t.Errorf("Add(%d,%d) = %d, want %d", tc.a, tc.c, got.Uint64(), want)
		}
	}
}

func TestSubtractAndSign(t *testing.T) {
	const width = 8
	b := gate.NewBuilder(2 * width)
	a := make([]gate.Wire, width)
	c := make([]gate.Wire, width)
	for i := 0; i < width; i++ {
		a[i] = gate.Wire(i)
		c[i] = gate.Wire(width + i)
	}
	diff, sign := Subtract(b, a, c)
	out := append(append([]gate.Wire{}, diff...), sign)
	inputs := circuit.IO{
		{Name: "a", Type: "u", Size: width},
		{Name: "c", Type: "u", Size: width},
	}
	outputs := circuit.IO{
		{Name: "diff", Type: "u", Size: width},
		{Name: "sign", Type: "u", Size: 1},
	}
	circ, err := b.Finish(inputs, outputs, out)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	tests := []struct {
		a, c     uint64
		wantSign bool
	}{
		{10, 3, true},
		{3, 10, false},
		{5, 5, true},
		{255, 0, true},
	}
	for _, tc := range tests {
		results, err := circ.Compute([]*big.Int{big.NewInt(int64(tc.a)), big.NewInt(int64(tc.c))})
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		gotSign := results[1].Bit(0) == 1
		if gotSign != tc.wantSign {
			t.Errorf("Subtract(%d,%d) sign = %v, want %v", tc.a, tc.c, gotSign, tc.wantSign)
		}
		if gotSign {
			want := (tc.a - tc.c) & 0xff
			if results[0].Uint64() != want {
				t.Errorf("Subtract(%d,%d) = %d, want %d", tc.a, tc.c, results[0].Uint64(), want)
			}
		}
	}
}

func TestMultiplyModP(t *testing.T) {
	const width = 7 // enough bits for p=101
	p := bitsLE(101, width)

	b := gate.NewBuilder(2 * width)
	a := make([]gate.Wire, width)
	c := make([]gate.Wire, width)
	for i := 0; i < width; i++ {
		a[i] = gate.Wire(i)
		c[i] = gate.Wire(width + i)
	}
	out := MultiplyModP(b, a, c, p)
	inputs := circuit.IO{
		{Name: "a", Type: "u", Size: width},
		{Name: "c", Type: "u", Size: width},
	}
	outputs := circuit.IO{
		{Name: "r", Type: "u", Size: width},
	}
	circ, err := b.Finish(inputs, outputs, out)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	tests := []struct{ a, c uint64 }{
		{2, 17}, {34, 3}, {100, 100}, {0, 55}, {1, 1},
	}
	for _, tc := range tests {
		results, err := circ.Compute([]*big.Int{big.NewInt(int64(tc.a)), big.NewInt(int64(tc.c))})
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		want := (tc.a * tc.c) % 101
		if results[0].Uint64() != want {
			t.Errorf("MultiplyModP(%d,%d) mod 101 = %d, want %d", tc.a, tc.c, results[0].Uint64(), want)
		}
	}
}

func TestHamming(t *testing.T) {
	const width = 8
	b := gate.NewBuilder(2 * width)
	a := make([]gate.Wire, width)
	c := make([]gate.Wire, width)
	for i := 0; i < width; i++ {
		a[i] = gate.Wire(i)
		c[i] = gate.Wire(width + i)
	}
	out := Hamming(b, a, c)
	inputs := circuit.IO{
		{Name: "a", Type: "u", Size: width},
		{Name: "c", Type: "u", Size: width},
	}
	outputs := circuit.IO{
		{Name: "r", Type: "u", Size: len(out)},
	}
	circ, err := b.Finish(inputs, outputs, out)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	// 0b00000011 vs 0b00000000 differ in 2 bits.
	results, err := circ.Compute([]*big.Int{big.NewInt(3), big.NewInt(0)})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if results[0].Uint64() != 2 {
		t.Fatalf("Hamming(3,0) = %d, want 2", results[0].Uint64())
	}
}

// bitsLE returns the len-bit little-endian bit decomposition of v.
func bitsLE(v uint64, n int) []int {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int((v >> uint(i)) & 1)
	}
	return out
}
