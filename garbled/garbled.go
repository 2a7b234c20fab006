//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package garbled implements a compact, persistable encoding of a
// garbled circuit: GarbledInfo keeps the non-free (AND/OR/INV) gate
// tables, the output decoding permutation bits, and the garbler's
// own secret state (the free-XOR offset and the table's AES key), so
// a *circuit.Garbled need not be held in memory between the step that
// garbles a circuit and a later step that evaluates it (in ssfe,
// Encrypt packs it into the ciphertext and Decrypt unpacks it).
package garbled

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/markkurossi/mpc/circuit"
	"github.com/markkurossi/mpc/ot"
)

// MagicInfo marks the start of a serialized GarbledInfo, mirroring
// circuit.MAGIC's role in circuit.Marshal.
const MagicInfo = 0x62636665 // bcfe

// GarbledInfo is the compact, persistable form of a *circuit.Garbled
// for a known *circuit.Circuit. Free (XOR/XNOR) gates contribute no
// table rows, matching circuit.Gate.Garble's own free-XOR
// optimization.
type GarbledInfo struct {
	OutputPerms []bool
	Table       []ot.Label
	FixedLabel  ot.Label
	GlobalKey   []byte
	InputLabels []ot.Wire
}

// Pack compacts a *circuit.Garbled produced by circ.Garble(key) into
// a GarbledInfo: it drops the empty table rows free gates leave
// behind and keeps only what is needed to run circuit.Eval again
// plus decode its outputs.
func Pack(circ *circuit.Circuit, key []byte, g *circuit.Garbled) (*GarbledInfo, error) {
	if len(g.Gates) != circ.NumGates {
		return nil, fmt.Errorf("garbled: garbled gate count %d does not match circuit %d",
			len(g.Gates), circ.NumGates)
	}

	info := &GarbledInfo{
		FixedLabel: g.R,
		GlobalKey:  append([]byte(nil), key...),
	}

	info.InputLabels = append(info.InputLabels, g.Wires[:circ.Inputs.Size()]...)

	for _, rows := range g.Gates {
		info.Table = append(info.Table, rows...)
	}

	outBase := circ.NumWires - circ.Outputs.Size()
	info.OutputPerms = make([]bool, circ.Outputs.Size())
	for i := range info.OutputPerms {
		info.OutputPerms[i] = g.Wires[outBase+i].L0.S()
	}

	return info, nil
}

// Unpack expands a GarbledInfo back into the full per-gate table
// circuit.Eval expects (one entry per gate, nil for free gates).
func (info *GarbledInfo) Unpack(circ *circuit.Circuit) ([][]ot.Label, error) {
	tables := make([][]ot.Label, circ.NumGates)

	var pos int
	for i := range circ.Gates {
		n, err := rowsFor(circ.Gates[i].Op)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		if pos+n > len(info.Table) {
			return nil, fmt.Errorf("garbled: truncated table at gate %d", i)
		}
		tables[i] = info.Table[pos : pos+n]
		pos += n
	}
	if pos != len(info.Table) {
		return nil, fmt.Errorf("garbled: table has %d extra labels", len(info.Table)-pos)
	}
	return tables, nil
}

// rowsFor returns how many garbled table rows circuit.Gate.Garble
// produces for a gate of the given operation.
func rowsFor(op circuit.Operation) (int, error) {
	switch op {
	case circuit.XOR, circuit.XNOR:
		return 0, nil
	case circuit.AND:
		return 2, nil
	case circuit.OR:
		return 4, nil
	case circuit.INV:
		return 2, nil
	default:
		return 0, fmt.Errorf("garbled: unsupported gate operation %s", op)
	}
}

// MarshalBinary encodes a GarbledInfo as
// magic || len(output_perms) || output_perms bits (1 byte each) ||
// (len(table)+2) 16-byte labels (table rows, then fixed_label, then
// a label built from global_key) || len(global_key) || global_key ||
// len(input_labels) || input_labels (L0,L1 pairs), mirroring the
// original "(table.size()+2)*sizeof(block)" blob convention while
// keeping global_key as its own explicit length-prefixed field since
// this port's AES keys are not fixed at 16 bytes.
func (info *GarbledInfo) MarshalBinary() ([]byte, error) {
	var data []interface{}
	data = append(data, uint32(MagicInfo), uint32(len(info.OutputPerms)))

	w := new(byteWriter)
	for _, v := range data {
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}
	for _, b := range info.OutputPerms {
		if b {
			w.buf = append(w.buf, 1)
		} else {
			w.buf = append(w.buf, 0)
		}
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(info.Table)+2)); err != nil {
		return nil, err
	}
	var ld ot.LabelData
	for _, l := range info.Table {
		w.buf = append(w.buf, l.Bytes(&ld)...)
	}
	w.buf = append(w.buf, info.FixedLabel.Bytes(&ld)...)
	var global ot.Label
	global.SetBytes(padKey(info.GlobalKey))
	w.buf = append(w.buf, global.Bytes(&ld)...)

	if err := binary.Write(w, binary.BigEndian, uint32(len(info.GlobalKey))); err != nil {
		return nil, err
	}
	w.buf = append(w.buf, info.GlobalKey...)

	if err := binary.Write(w, binary.BigEndian, uint32(len(info.InputLabels))); err != nil {
		return nil, err
	}
	for _, wire := range info.InputLabels {
		w.buf = append(w.buf, wire.L0.Bytes(&ld)...)
		w.buf = append(w.buf, wire.L1.Bytes(&ld)...)
	}

	return w.buf, nil
}

// UnmarshalBinary decodes the format produced by MarshalBinary.
func (info *GarbledInfo) UnmarshalBinary(data []byte) error {
	r := &byteReader{buf: data}

	var magic, numPerms uint32
	if err := r.readUint32(&magic); err != nil {
		return err
	}
	if magic != MagicInfo {
		return fmt.Errorf("garbled: invalid magic %08x", magic)
	}
	if err := r.readUint32(&numPerms); err != nil {
		return err
	}
	info.OutputPerms = make([]bool, numPerms)
	for i := range info.OutputPerms {
		b, err := r.readByte()
		if err != nil {
			return err
		}
		info.OutputPerms[i] = b != 0
	}

	var blockCount uint32
	if err := r.readUint32(&blockCount); err != nil {
		return err
	}
	if blockCount < 2 {
		return fmt.Errorf("garbled: block count %d too small", blockCount)
	}
	tableLen := int(blockCount) - 2
	info.Table = make([]ot.Label, tableLen)
	for i := range info.Table {
		label, err := r.readLabel()
		if err != nil {
			return err
		}
		info.Table[i] = label
	}
	fixed, err := r.readLabel()
	if err != nil {
		return err
	}
	info.FixedLabel = fixed
	if _, err := r.readLabel(); err != nil { // derived global-key label, recomputed below
		return err
	}

	var keyLen uint32
	if err := r.readUint32(&keyLen); err != nil {
		return err
	}
	key, err := r.readBytes(int(keyLen))
	if err != nil {
		return err
	}
	info.GlobalKey = key

	var numInputs uint32
	if err := r.readUint32(&numInputs); err != nil {
		return err
	}
	info.InputLabels = make([]ot.Wire, numInputs)
	for i := range info.InputLabels {
		l0, err := r.readLabel()
		if err != nil {
			return err
		}
		l1, err := r.readLabel()
		if err != nil {
			return err
		}
		info.InputLabels[i] = ot.Wire{L0: l0, L1: l1}
	}

	return nil
}

// padKey truncates or zero-extends key to 16 bytes so it can be
// carried as a label-sized block alongside fixed_label, matching the
// original format's fixed block width; the authoritative key is the
// explicit, unpadded GlobalKey field.
func padKey(key []byte) []byte {
	var buf [16]byte
	copy(buf[:], key)
	return buf[:]
}

type byteWriter struct {
	buf []byte
}

func (w *byteWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) readUint32(v *uint32) error {
	if r.pos+4 > len(r.buf) {
		return io.ErrUnexpectedEOF
	}
	*v = binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return nil
}

func (r *byteReader) readByte() (byte, error) {
	if r.pos+1 > len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) readBytes(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := append([]byte(nil), r.buf[r.pos:r.pos+n]...)
	r.pos += n
	return b, nil
}

func (r *byteReader) readLabel() (ot.Label, error) {
	b, err := r.readBytes(16)
	if err != nil {
		return ot.Label{}, err
	}
	var l ot.Label
	l.SetBytes(b)
	return l, nil
}
