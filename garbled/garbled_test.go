//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package garbled

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/markkurossi/mpc/ot"

	"github.com/markkurossi/bcfe/family"
)

// evalPlain garbles circ, packs/unpacks it through GarbledInfo, and
// evaluates it on the given plaintext input bits, returning the
// decoded output bits. It stands in for the OT/transfer layer that
// would normally choose labels on the evaluator's behalf: here both
// input wires are simply picked directly from the garbler's labels,
// since this test only checks that Pack/Unpack round-trips Garble's
// cryptographic state faithfully.
func evalPlain(t *testing.T, msg, instance []int) []bool {
	t.Helper()

	d := family.NewParity(len(msg))
	circ, err := d.BuildUniversal()
	if err != nil {
		t.Fatalf("BuildUniversal: %v", err)
	}

	key := bytes.Repeat([]byte{0x11}, 16)
	g, err := circ.Garble(key)
	if err != nil {
		t.Fatalf("Garble: %v", err)
	}

	info, err := Pack(circ, key, g)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	raw, err := info.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	var roundTripped GarbledInfo
	if err := roundTripped.UnmarshalBinary(raw); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}

	tables, err := roundTripped.Unpack(circ)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	wires := make([]ot.Label, circ.NumWires)
	bits := append(append([]int{}, msg...), instance...)
	for i, bit := range bits {
		w := roundTripped.InputLabels[i]
		if bit == 0 {
			wires[i] = w.L0
		} else {
			wires[i] = w.L1
		}
	}

	if err := circ.Eval(roundTripped.GlobalKey, wires, tables); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	outBase := circ.NumWires - circ.Outputs.Size()
	out := make([]bool, circ.Outputs.Size())
	for i := range out {
		out[i] = wires[outBase+i].S() != roundTripped.OutputPerms[i]
	}
	return out
}

func TestPackUnpackRoundTrip(t *testing.T) {
	tests := []struct {
		msg, instance []int
		want          uint64
	}{
		{[]int{1, 0, 1, 1}, []int{1, 1, 0, 1}, 0},
		{[]int{1, 1, 1, 1}, []int{0, 0, 0, 0}, 0},
		{[]int{1, 0, 0, 0}, []int{1, 0, 0, 0}, 1},
	}
	for _, tc := range tests {
		out := evalPlain(t, tc.msg, tc.instance)
		got := new(big.Int)
		for i, b := range out {
			if b {
				got.SetBit(got, i, 1)
			}
		}
		if got.Uint64() != tc.want {
			t.Errorf("garbled parity(%v,%v) = %d, want %d", tc.msg, tc.instance, got.Uint64(), tc.want)
		}
	}
}
