//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package ssfe implements the Sahai-Seyalioglu one-query functional
// encryption construction: a fresh universal garbled circuit is
// built and garbled on every Encrypt call, its message-side wire
// labels are handed over directly, and its instance-side (key-side)
// wire label pairs are each encrypted under one of two independent
// inner-scheme public keys, so that a KeyGen for a given circuit
// instance discloses exactly the labels consistent with that
// instance and no others.
package ssfe

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/markkurossi/mpc/ot"

	"github.com/markkurossi/bcfe/escheme"
	"github.com/markkurossi/bcfe/family"
	"github.com/markkurossi/bcfe/garbled"
)

// ErrFamilyMismatch is returned when a KeyGen instance's bit length
// does not match the scheme's circuit description.
var ErrFamilyMismatch = errors.New("ssfe: instance does not match circuit description")

// Pair holds the two values kept for one instance-side wire, indexed
// by that wire's two possible bit values.
type Pair[T any] struct {
	Zero, One T
}

// MasterSecretKey holds one inner-scheme secret key pair per
// instance-side wire.
type MasterSecretKey[MSK any] struct {
	Pairs []Pair[MSK]
}

// MasterPublicKey holds one inner-scheme public key pair per
// instance-side wire.
type MasterPublicKey[MPK any] struct {
	Pairs []Pair[MPK]
}

// SecretKey names, for each instance-side wire, which half of the
// master secret key pair this key uses and holds that half.
type SecretKey[MSK any] struct {
	Bits []int
	Keys []MSK
}

// Ciphertext carries a freshly garbled universal circuit's compact
// info, the plaintext message-side labels, and the instance-side
// label pairs encrypted under the master public key.
type Ciphertext[SK any] struct {
	Info   *garbled.GarbledInfo
	Labels []ot.Label
	Inputs []Pair[SK]
}

// Scheme implements the one-query FE construction for a fixed
// circuit description, over an inner encryption scheme.
type Scheme[MSK, MPK, SK any] struct {
	Description *family.Description
	Inner       escheme.ES[MSK, MPK, SK]

	// KeyLength is the length passed to Inner.Setup: AES key bytes
	// (16, 24, or 32) for escheme.AES, RSA modulus bits for
	// escheme.RSA. It is independent of GarbleKeyLength.
	KeyLength int

	// GarbleKeyLength is the AES key byte length (16, 24, or 32)
	// Encrypt draws fresh on every call to garble the universal
	// circuit. circuit.Circuit.Garble always runs AES internally, so
	// this is fixed regardless of which inner scheme KeyLength
	// configures.
	GarbleKeyLength int
}

// Setup generates an independent inner-scheme key pair for each of
// the two possible bit values of every instance-side wire.
func (s *Scheme[MSK, MPK, SK]) Setup(rand io.Reader) (MasterSecretKey[MSK], MasterPublicKey[MPK], error) {
	n := s.Description.CircuitSize
	msk := MasterSecretKey[MSK]{Pairs: make([]Pair[MSK], n)}
	mpk := MasterPublicKey[MPK]{Pairs: make([]Pair[MPK], n)}

	for i := 0; i < n; i++ {
		sk0, pk0, err := s.Inner.Setup(rand, s.KeyLength)
		if err != nil {
			return MasterSecretKey[MSK]{}, MasterPublicKey[MPK]{}, errors.Wrapf(err, "ssfe: Setup wire %d half 0", i)
		}
		sk1, pk1, err := s.Inner.Setup(rand, s.KeyLength)
		if err != nil {
			return MasterSecretKey[MSK]{}, MasterPublicKey[MPK]{}, errors.Wrapf(err, "ssfe: Setup wire %d half 1", i)
		}
		msk.Pairs[i] = Pair[MSK]{Zero: sk0, One: sk1}
		mpk.Pairs[i] = Pair[MPK]{Zero: pk0, One: pk1}
	}
	return msk, mpk, nil
}

// KeyGen derives a single-use secret key for the given circuit
// instance: for each instance-side wire, it keeps the inner-scheme
// secret key matching that wire's fixed bit.
func (s *Scheme[MSK, MPK, SK]) KeyGen(msk MasterSecretKey[MSK], instance family.Instance) (SecretKey[MSK], error) {
	n := s.Description.CircuitSize
	if instance.Len() != n {
		return SecretKey[MSK]{}, errors.Wrapf(ErrFamilyMismatch, "instance length %d, want %d", instance.Len(), n)
	}

	sk := SecretKey[MSK]{Bits: make([]int, n), Keys: make([]MSK, n)}
	for i := 0; i < n; i++ {
		bit := instance.Bit(i)
		sk.Bits[i] = bit
		if bit == 0 {
			sk.Keys[i] = msk.Pairs[i].Zero
		} else {
			sk.Keys[i] = msk.Pairs[i].One
		}
	}
	return sk, nil
}

// Encrypt builds and garbles a fresh universal circuit for msg,
// discloses its message-side labels in the clear, and encrypts each
// instance-side wire's label pair under the corresponding master
// public key pair.
func (s *Scheme[MSK, MPK, SK]) Encrypt(rand io.Reader, mpk MasterPublicKey[MPK], msg []int) (Ciphertext[SK], error) {
	circ, err := s.Description.BuildUniversal()
	if err != nil {
		return Ciphertext[SK]{}, errors.Wrap(err, "ssfe: Encrypt: build universal circuit")
	}

	key := make([]byte, s.GarbleKeyLength)
	if _, err := io.ReadFull(rand, key); err != nil {
		return Ciphertext[SK]{}, errors.Wrap(err, "ssfe: Encrypt: circuit key")
	}

	g, err := circ.Garble(key)
	if err != nil {
		return Ciphertext[SK]{}, errors.Wrap(err, "ssfe: Encrypt: garble")
	}

	info, err := garbled.Pack(circ, key, g)
	if err != nil {
		return Ciphertext[SK]{}, errors.Wrap(err, "ssfe: Encrypt: pack")
	}
	// The ciphertext ships message-side and instance-side labels
	// separately below (plaintext vs. encrypted per wire), so the
	// generic InputLabels field (which carries both sides together)
	// would leak the instance-side pairs in the clear.
	info.InputLabels = nil

	var ld ot.LabelData

	labels := make([]ot.Label, s.Description.InputSize)
	for i := 0; i < s.Description.InputSize; i++ {
		bit := s.Description.MsgBit(msg, i)
		w := g.Wires[i]
		if bit == 0 {
			labels[i] = w.L0
		} else {
			labels[i] = w.L1
		}
	}

	inputs := make([]Pair[SK], s.Description.CircuitSize)
	for i := 0; i < s.Description.CircuitSize; i++ {
		w := g.Wires[s.Description.InputSize+i]
		ct0, err := s.Inner.Encrypt(rand, mpk.Pairs[i].Zero, w.L0.Bytes(&ld))
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "ssfe: Encrypt: wire %d half 0", i)
		}
		ct1, err := s.Inner.Encrypt(rand, mpk.Pairs[i].One, w.L1.Bytes(&ld))
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "ssfe: Encrypt: wire %d half 1", i)
		}
		inputs[i] = Pair[SK]{Zero: ct0, One: ct1}
	}

	return Ciphertext[SK]{Info: info, Labels: labels, Inputs: inputs}, nil
}

// Decrypt reconstructs the instance-side wire labels sk is entitled
// to, evaluates the garbled circuit, and decodes its result through
// the scheme's circuit description.
func (s *Scheme[MSK, MPK, SK]) Decrypt(sk SecretKey[MSK], ct Ciphertext[SK]) ([]int, error) {
	circ, err := s.Description.BuildUniversal()
	if err != nil {
		return nil, errors.Wrap(err, "ssfe: Decrypt: build universal circuit")
	}

	tables, err := ct.Info.Unpack(circ)
	if err != nil {
		return nil, errors.Wrap(err, "ssfe: Decrypt: unpack")
	}

	wires := make([]ot.Label, circ.NumWires)
	copy(wires, ct.Labels)

	for i := range sk.Keys {
		var src SK
		if sk.Bits[i] == 0 {
			src = ct.Inputs[i].Zero
		} else {
			src = ct.Inputs[i].One
		}
		pt, err := s.Inner.Decrypt(sk.Keys[i], src)
		if err != nil {
			return nil, errors.Wrapf(err, "ssfe: Decrypt: wire %d", i)
		}
		var label ot.Label
		label.SetBytes(pt)
		wires[s.Description.InputSize+i] = label
	}

	if err := circ.Eval(ct.Info.GlobalKey, wires, tables); err != nil {
		return nil, errors.Wrap(err, "ssfe: Decrypt: eval")
	}

	outBase := circ.NumWires - circ.Outputs.Size()
	vals := make([]bool, circ.Outputs.Size())
	for i := range vals {
		vals[i] = wires[outBase+i].S() != ct.Info.OutputPerms[i]
	}
	return s.Description.ReturnVals(vals), nil
}

// MarshalCiphertext encodes ct as
// info-blob || labels-blob || len(inputs) || (zero-half, one-half)
// pairs, each half run through marshalSK. Ciphertext cannot carry its
// own MarshalBinary method since SK's concrete type is only known at
// the call site, not at Ciphertext's declaration.
func MarshalCiphertext[SK any](ct Ciphertext[SK], marshalSK func(SK) ([]byte, error)) ([]byte, error) {
	info, err := ct.Info.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "ssfe: MarshalCiphertext: info")
	}

	var ld ot.LabelData
	labels := make([]byte, 0, len(ct.Labels)*16)
	for _, l := range ct.Labels {
		labels = append(labels, l.Bytes(&ld)...)
	}

	buf := appendBlob(nil, info)
	buf = appendBlob(buf, labels)

	var numBuf [4]byte
	binary.BigEndian.PutUint32(numBuf[:], uint32(len(ct.Inputs)))
	buf = append(buf, numBuf[:]...)
	for i, pair := range ct.Inputs {
		zero, err := marshalSK(pair.Zero)
		if err != nil {
			return nil, errors.Wrapf(err, "ssfe: MarshalCiphertext: input %d zero half", i)
		}
		one, err := marshalSK(pair.One)
		if err != nil {
			return nil, errors.Wrapf(err, "ssfe: MarshalCiphertext: input %d one half", i)
		}
		buf = appendBlob(buf, zero)
		buf = appendBlob(buf, one)
	}
	return buf, nil
}

// UnmarshalCiphertext decodes the format produced by
// MarshalCiphertext.
func UnmarshalCiphertext[SK any](data []byte, unmarshalSK func([]byte) (SK, error)) (Ciphertext[SK], error) {
	infoRaw, rest, err := readBlob(data)
	if err != nil {
		return Ciphertext[SK]{}, errors.Wrap(err, "ssfe: UnmarshalCiphertext: info")
	}
	info := &garbled.GarbledInfo{}
	if err := info.UnmarshalBinary(infoRaw); err != nil {
		return Ciphertext[SK]{}, errors.Wrap(err, "ssfe: UnmarshalCiphertext: info")
	}

	labelsRaw, rest, err := readBlob(rest)
	if err != nil {
		return Ciphertext[SK]{}, errors.Wrap(err, "ssfe: UnmarshalCiphertext: labels")
	}
	if len(labelsRaw)%16 != 0 {
		return Ciphertext[SK]{}, errors.New("ssfe: UnmarshalCiphertext: malformed labels blob")
	}
	labels := make([]ot.Label, len(labelsRaw)/16)
	for i := range labels {
		labels[i].SetBytes(labelsRaw[i*16 : (i+1)*16])
	}

	if len(rest) < 4 {
		return Ciphertext[SK]{}, io.ErrUnexpectedEOF
	}
	numInputs := binary.BigEndian.Uint32(rest)
	rest = rest[4:]

	inputs := make([]Pair[SK], numInputs)
	for i := range inputs {
		var zeroRaw, oneRaw []byte
		zeroRaw, rest, err = readBlob(rest)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "ssfe: UnmarshalCiphertext: input %d zero half", i)
		}
		oneRaw, rest, err = readBlob(rest)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "ssfe: UnmarshalCiphertext: input %d one half", i)
		}
		zero, err := unmarshalSK(zeroRaw)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "ssfe: UnmarshalCiphertext: input %d zero half", i)
		}
		one, err := unmarshalSK(oneRaw)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "ssfe: UnmarshalCiphertext: input %d one half", i)
		}
		inputs[i] = Pair[SK]{Zero: zero, One: one}
	}

	return Ciphertext[SK]{Info: info, Labels: labels, Inputs: inputs}, nil
}

// appendBlob appends b to buf as a length-prefixed field.
func appendBlob(buf, b []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, b...)
}

// readBlob reads one appendBlob-encoded field off the front of data,
// returning the remaining bytes.
func readBlob(data []byte) (blob, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint64(len(data)) < uint64(n) {
		return nil, nil, io.ErrUnexpectedEOF
	}
	return data[:n], data[n:], nil
}
