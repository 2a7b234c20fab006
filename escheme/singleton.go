//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package escheme

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Singleton lifts an encryption scheme into one that picks, at
// KeyGen time, one of two independently generated key pairs by a
// fair coin flip, and encrypts under both public keys. This
// noncommitting-style construction is what lets the Sahai-Seyalioglu
// one-query FE achieve adaptive security: a simulator can program
// the unused half of the pair after the fact.
type Singleton[MSK, MPK, SK any] struct {
	Inner ES[MSK, MPK, SK]
}

// SingletonMSK holds both of the inner scheme's master secret keys.
type SingletonMSK[MSK any] struct {
	First, Second MSK
}

// SingletonMPK holds both of the inner scheme's master public keys.
type SingletonMPK[MPK any] struct {
	First, Second MPK
}

// SingletonSK names which of the two inner key pairs a derived
// secret key uses.
type SingletonSK[SK any] struct {
	Bit   bool
	Inner SK
}

// SingletonCT carries a ciphertext encrypted under both inner public
// keys.
type SingletonCT[SK any] struct {
	First, Second SK
}

// Setup runs the inner scheme's Setup twice to produce two
// independent key pairs.
func (s Singleton[MSK, MPK, SK]) Setup(rand io.Reader, length int) (SingletonMSK[MSK], SingletonMPK[MPK], error) {
	msk1, mpk1, err := s.Inner.Setup(rand, length)
	if err != nil {
		return SingletonMSK[MSK]{}, SingletonMPK[MPK]{}, errors.Wrap(err, "Singleton.Setup: first key pair")
	}
	msk2, mpk2, err := s.Inner.Setup(rand, length)
	if err != nil {
		return SingletonMSK[MSK]{}, SingletonMPK[MPK]{}, errors.Wrap(err, "Singleton.Setup: second key pair")
	}
	return SingletonMSK[MSK]{First: msk1, Second: msk2}, SingletonMPK[MPK]{First: mpk1, Second: mpk2}, nil
}

// KeyGen flips a fair coin to select one of the two master secret
// keys for this derived key.
func (s Singleton[MSK, MPK, SK]) KeyGen(rand io.Reader, msk SingletonMSK[MSK]) (SingletonSK[MSK], error) {
	var buf [1]byte
	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return SingletonSK[MSK]{}, errors.Wrap(err, "Singleton.KeyGen")
	}
	bit := buf[0]&1 == 1
	if bit {
		return SingletonSK[MSK]{Bit: true, Inner: msk.Second}, nil
	}
	return SingletonSK[MSK]{Bit: false, Inner: msk.First}, nil
}

// Encrypt encrypts msg under both of mpk's inner public keys.
func (s Singleton[MSK, MPK, SK]) Encrypt(rand io.Reader, mpk SingletonMPK[MPK], msg []byte) (SingletonCT[SK], error) {
	ct1, err := s.Inner.Encrypt(rand, mpk.First, msg)
	if err != nil {
		return SingletonCT[SK]{}, errors.Wrap(err, "Singleton.Encrypt: first ciphertext")
	}
	ct2, err := s.Inner.Encrypt(rand, mpk.Second, msg)
	if err != nil {
		return SingletonCT[SK]{}, errors.Wrap(err, "Singleton.Encrypt: second ciphertext")
	}
	return SingletonCT[SK]{First: ct1, Second: ct2}, nil
}

// Decrypt decrypts ct's first half under msk's first inner secret
// key. Encrypt ciphers the same message under both public keys, so
// either half decrypts correctly; KeyGen's coin only matters to the
// adaptive-security simulator, which programs the half a derived key
// does not name, not to Decrypt's correctness.
func (s Singleton[MSK, MPK, SK]) Decrypt(msk SingletonMSK[MSK], ct SingletonCT[SK]) ([]byte, error) {
	return s.Inner.Decrypt(msk.First, ct.First)
}

// MarshalSingletonMSK encodes msk as its two halves, each through
// marshalInner, length-prefixed. SingletonMSK cannot carry its own
// MarshalBinary method since MSK's concrete type is only known at the
// call site, not at SingletonMSK's declaration.
func MarshalSingletonMSK[MSK any](msk SingletonMSK[MSK], marshalInner func(MSK) ([]byte, error)) ([]byte, error) {
	first, err := marshalInner(msk.First)
	if err != nil {
		return nil, errors.Wrap(err, "MarshalSingletonMSK: first")
	}
	second, err := marshalInner(msk.Second)
	if err != nil {
		return nil, errors.Wrap(err, "MarshalSingletonMSK: second")
	}
	return appendBlob(appendBlob(nil, first), second), nil
}

// UnmarshalSingletonMSK decodes the format produced by
// MarshalSingletonMSK.
func UnmarshalSingletonMSK[MSK any](data []byte, unmarshalInner func([]byte) (MSK, error)) (SingletonMSK[MSK], error) {
	firstRaw, rest, err := readBlob(data)
	if err != nil {
		return SingletonMSK[MSK]{}, errors.Wrap(err, "UnmarshalSingletonMSK: first")
	}
	secondRaw, _, err := readBlob(rest)
	if err != nil {
		return SingletonMSK[MSK]{}, errors.Wrap(err, "UnmarshalSingletonMSK: second")
	}
	first, err := unmarshalInner(firstRaw)
	if err != nil {
		return SingletonMSK[MSK]{}, errors.Wrap(err, "UnmarshalSingletonMSK: first")
	}
	second, err := unmarshalInner(secondRaw)
	if err != nil {
		return SingletonMSK[MSK]{}, errors.Wrap(err, "UnmarshalSingletonMSK: second")
	}
	return SingletonMSK[MSK]{First: first, Second: second}, nil
}

// MarshalSingletonMPK encodes mpk as its two halves, each through
// marshalInner, length-prefixed.
func MarshalSingletonMPK[MPK any](mpk SingletonMPK[MPK], marshalInner func(MPK) ([]byte, error)) ([]byte, error) {
	first, err := marshalInner(mpk.First)
	if err != nil {
		return nil, errors.Wrap(err, "MarshalSingletonMPK: first")
	}
	second, err := marshalInner(mpk.Second)
	if err != nil {
		return nil, errors.Wrap(err, "MarshalSingletonMPK: second")
	}
	return appendBlob(appendBlob(nil, first), second), nil
}

// UnmarshalSingletonMPK decodes the format produced by
// MarshalSingletonMPK.
func UnmarshalSingletonMPK[MPK any](data []byte, unmarshalInner func([]byte) (MPK, error)) (SingletonMPK[MPK], error) {
	firstRaw, rest, err := readBlob(data)
	if err != nil {
		return SingletonMPK[MPK]{}, errors.Wrap(err, "UnmarshalSingletonMPK: first")
	}
	secondRaw, _, err := readBlob(rest)
	if err != nil {
		return SingletonMPK[MPK]{}, errors.Wrap(err, "UnmarshalSingletonMPK: second")
	}
	first, err := unmarshalInner(firstRaw)
	if err != nil {
		return SingletonMPK[MPK]{}, errors.Wrap(err, "UnmarshalSingletonMPK: first")
	}
	second, err := unmarshalInner(secondRaw)
	if err != nil {
		return SingletonMPK[MPK]{}, errors.Wrap(err, "UnmarshalSingletonMPK: second")
	}
	return SingletonMPK[MPK]{First: first, Second: second}, nil
}

// MarshalSingletonCT encodes ct as its two halves, each through
// marshalInner, length-prefixed.
func MarshalSingletonCT[SK any](ct SingletonCT[SK], marshalInner func(SK) ([]byte, error)) ([]byte, error) {
	first, err := marshalInner(ct.First)
	if err != nil {
		return nil, errors.Wrap(err, "MarshalSingletonCT: first")
	}
	second, err := marshalInner(ct.Second)
	if err != nil {
		return nil, errors.Wrap(err, "MarshalSingletonCT: second")
	}
	return appendBlob(appendBlob(nil, first), second), nil
}

// UnmarshalSingletonCT decodes the format produced by
// MarshalSingletonCT.
func UnmarshalSingletonCT[SK any](data []byte, unmarshalInner func([]byte) (SK, error)) (SingletonCT[SK], error) {
	firstRaw, rest, err := readBlob(data)
	if err != nil {
		return SingletonCT[SK]{}, errors.Wrap(err, "UnmarshalSingletonCT: first")
	}
	secondRaw, _, err := readBlob(rest)
	if err != nil {
		return SingletonCT[SK]{}, errors.Wrap(err, "UnmarshalSingletonCT: second")
	}
	first, err := unmarshalInner(firstRaw)
	if err != nil {
		return SingletonCT[SK]{}, errors.Wrap(err, "UnmarshalSingletonCT: first")
	}
	second, err := unmarshalInner(secondRaw)
	if err != nil {
		return SingletonCT[SK]{}, errors.Wrap(err, "UnmarshalSingletonCT: second")
	}
	return SingletonCT[SK]{First: first, Second: second}, nil
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
