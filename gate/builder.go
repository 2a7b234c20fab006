//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package gate implements a minimal index-based Boolean-circuit
// builder over the garbled-circuit runtime of
// github.com/markkurossi/mpc/circuit. Gadgets read a contiguous
// range of wire indices and append new wires, returning the indices
// of their output wires; nothing here keeps a wire DAG or assigns
// gate ordering the way compiler/circuits.Compiler does, since the
// circuit families build straight-line code with statically known
// wire counts.
package gate

import (
	"fmt"

	"github.com/markkurossi/mpc/circuit"
)

// Wire identifies a circuit wire by its index.
type Wire int

// Builder accumulates gates for a single circuit under
// construction. The first n wires (n == NumInputs) are preallocated
// as circuit inputs; Builder.NextWire allocates the rest as gates
// are appended.
type Builder struct {
	numInputs int
	next      int
	gates     []circuit.Gate
	zero      Wire
	one       Wire
	haveZero  bool
	haveOne   bool
}

// NewBuilder creates a builder whose first numInputs wires are the
// circuit's input wires.
func NewBuilder(numInputs int) *Builder {
	return &Builder{
		numInputs: numInputs,
		next:      numInputs,
	}
}

// NextWire allocates and returns a fresh, unconnected wire.
func (b *Builder) NextWire() Wire {
	w := Wire(b.next)
	b.next++
	return w
}

func (b *Builder) addGate(op circuit.Operation, in0, in1, out Wire) {
	b.gates = append(b.gates, circuit.Gate{
		Input0: circuit.Wire(in0),
		Input1: circuit.Wire(in1),
		Output: circuit.Wire(out),
		Op:     op,
	})
}

// Xor appends an XOR gate and returns its output wire.
func (b *Builder) Xor(a, c Wire) Wire {
	o := b.NextWire()
	b.addGate(circuit.XOR, a, c, o)
	return o
}

// Xnor appends an XNOR gate and returns its output wire.
func (b *Builder) Xnor(a, c Wire) Wire {
	o := b.NextWire()
	b.addGate(circuit.XNOR, a, c, o)
	return o
}

// And appends an AND gate and returns its output wire.
func (b *Builder) And(a, c Wire) Wire {
	o := b.NextWire()
	b.addGate(circuit.AND, a, c, o)
	return o
}

// Or appends an OR gate and returns its output wire.
func (b *Builder) Or(a, c Wire) Wire {
	o := b.NextWire()
	b.addGate(circuit.OR, a, c, o)
	return o
}

// Inv appends an INV (NOT) gate and returns its output wire.
func (b *Builder) Inv(a Wire) Wire {
	o := b.NextWire()
	b.gates = append(b.gates, circuit.Gate{
		Input0: circuit.Wire(a),
		Output: circuit.Wire(o),
		Op:     circuit.INV,
	})
	return o
}

// Zero returns a wire that always carries 0, creating it on first use.
func (b *Builder) Zero() Wire {
	if !b.haveZero {
		b.zero = b.Xor(0, 0)
		b.haveZero = true
	}
	return b.zero
}

// One returns a wire that always carries 1, creating it on first use.
func (b *Builder) One() Wire {
	if !b.haveOne {
		b.one = b.Xnor(0, 0)
		b.haveOne = true
	}
	return b.one
}

// Zeros returns n wires that each carry the constant 0; every entry
// is the same shared Zero wire.
func (b *Builder) Zeros(n int) []Wire {
	z := b.Zero()
	out := make([]Wire, n)
	for i := range out {
		out[i] = z
	}
	return out
}

// Const returns n wires encoding the little-endian bits of v.
func (b *Builder) Const(v uint64, n int) []Wire {
	out := make([]Wire, n)
	zero := b.Zero()
	one := b.One()
	for i := 0; i < n; i++ {
		if (v>>uint(i))&1 == 1 {
			out[i] = one
		} else {
			out[i] = zero
		}
	}
	return out
}

// Finish copies outputs to the final contiguous block of wires (the
// convention circuit.Garble/circuit.Eval rely on: the last
// len(outputs) wires of the circuit are its outputs) and compiles
// the accumulated gates into a *circuit.Circuit.
func (b *Builder) Finish(inputs, outputs circuit.IO, results []Wire) (*circuit.Circuit, error) {
	if inputs.Size() != b.numInputs {
		return nil, fmt.Errorf("gate: input IO size %d does not match builder inputs %d",
			inputs.Size(), b.numInputs)
	}
	if outputs.Size() != len(results) {
		return nil, fmt.Errorf("gate: output IO size %d does not match %d results",
			outputs.Size(), len(results))
	}
	zero := b.Zero()
	for _, r := range results {
		b.Xor(r, zero)
	}

	stats := make(map[circuit.Operation]int)
	for _, g := range b.gates {
		stats[g.Op]++
	}

	return &circuit.Circuit{
		NumGates: len(b.gates),
		NumWires: b.next,
		Inputs:   inputs,
		Outputs:  outputs,
		Gates:    b.gates,
		Stats:    stats,
	}, nil
}
