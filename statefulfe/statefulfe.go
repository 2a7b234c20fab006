//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package statefulfe lifts a one-query functional encryption scheme
// (ssfe.Scheme) into a bounded-collusion scheme good for up to
// KeyLimit keys: Setup runs KeyLimit independent one-query key pairs,
// Encrypt produces one one-query ciphertext per pair, and KeyGen
// hands out the pairs one at a time from an internal counter so that
// no two issued keys ever share a one-query instance.
package statefulfe

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/markkurossi/bcfe/escheme"
	"github.com/markkurossi/bcfe/family"
	"github.com/markkurossi/bcfe/ssfe"
)

// ErrKeyLimitExceeded is returned by KeyGen once KeyLimit keys have
// already been issued.
var ErrKeyLimitExceeded = errors.New("statefulfe: key limit exceeded")

// MasterSecretKey holds one inner one-query master secret key per
// issuable key slot.
type MasterSecretKey[MSK any] struct {
	Keys []ssfe.MasterSecretKey[MSK]
}

// MasterPublicKey holds one inner one-query master public key per
// issuable key slot.
type MasterPublicKey[MPK any] struct {
	Keys []ssfe.MasterPublicKey[MPK]
}

// SecretKey names the key slot it was issued from and holds that
// slot's one-query secret key.
type SecretKey[MSK any] struct {
	Index int
	Inner ssfe.SecretKey[MSK]
}

// Ciphertext holds one one-query ciphertext per key slot; Decrypt
// consumes only the slot named by the SecretKey it is paired with.
type Ciphertext[SK any] struct {
	Inner []ssfe.Ciphertext[SK]
}

// Scheme lifts an ssfe.Scheme into a KeyLimit-bounded-collusion
// scheme. A Scheme is not safe for concurrent KeyGen calls: the next
// issued key slot is tracked by an internal counter with no locking,
// matching the reference construction's single-threaded key issuer.
type Scheme[MSK, MPK, SK any] struct {
	Inner    *ssfe.Scheme[MSK, MPK, SK]
	KeyLimit int

	issued int
}

// NewScheme returns a Scheme good for up to keyLimit issued keys,
// built over the given circuit description and inner encryption
// scheme. keyLength is passed to the inner scheme's Setup (AES key
// bytes, RSA modulus bits); garbleKeyLength is the AES key byte
// length (16, 24, or 32) used to garble each one-query circuit and is
// independent of keyLength.
func NewScheme[MSK, MPK, SK any](description *family.Description, inner escheme.ES[MSK, MPK, SK], keyLength, garbleKeyLength, keyLimit int) *Scheme[MSK, MPK, SK] {
	return &Scheme[MSK, MPK, SK]{
		Inner: &ssfe.Scheme[MSK, MPK, SK]{
			Description:     description,
			Inner:           inner,
			KeyLength:       keyLength,
			GarbleKeyLength: garbleKeyLength,
		},
		KeyLimit: keyLimit,
	}
}

// Setup generates KeyLimit independent one-query key pairs.
func (s *Scheme[MSK, MPK, SK]) Setup(rand io.Reader) (MasterSecretKey[MSK], MasterPublicKey[MPK], error) {
	msk := MasterSecretKey[MSK]{Keys: make([]ssfe.MasterSecretKey[MSK], s.KeyLimit)}
	mpk := MasterPublicKey[MPK]{Keys: make([]ssfe.MasterPublicKey[MPK], s.KeyLimit)}

	for i := 0; i < s.KeyLimit; i++ {
		sk, pk, err := s.Inner.Setup(rand)
		if err != nil {
			return MasterSecretKey[MSK]{}, MasterPublicKey[MPK]{}, errors.Wrapf(err, "statefulfe: Setup slot %d", i)
		}
		msk.Keys[i] = sk
		mpk.Keys[i] = pk
	}
	return msk, mpk, nil
}

// KeyGen issues a key for the next unused slot. It fails once
// KeyLimit keys have already been issued.
func (s *Scheme[MSK, MPK, SK]) KeyGen(msk MasterSecretKey[MSK], instance family.Instance) (SecretKey[MSK], error) {
	if s.issued >= s.KeyLimit {
		return SecretKey[MSK]{}, ErrKeyLimitExceeded
	}

	index := s.issued
	inner, err := s.Inner.KeyGen(msk.Keys[index], instance)
	if err != nil {
		return SecretKey[MSK]{}, errors.Wrapf(err, "statefulfe: KeyGen slot %d", index)
	}

	s.issued++
	return SecretKey[MSK]{Index: index, Inner: inner}, nil
}

// Encrypt encrypts msg under every key slot's public key.
func (s *Scheme[MSK, MPK, SK]) Encrypt(rand io.Reader, mpk MasterPublicKey[MPK], msg []int) (Ciphertext[SK], error) {
	ct := Ciphertext[SK]{Inner: make([]ssfe.Ciphertext[SK], s.KeyLimit)}
	for i := 0; i < s.KeyLimit; i++ {
		c, err := s.Inner.Encrypt(rand, mpk.Keys[i], msg)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "statefulfe: Encrypt slot %d", i)
		}
		ct.Inner[i] = c
	}
	return ct, nil
}

// Decrypt decrypts the ciphertext slot matching sk's issued index.
func (s *Scheme[MSK, MPK, SK]) Decrypt(sk SecretKey[MSK], ct Ciphertext[SK]) ([]int, error) {
	return s.Inner.Decrypt(sk.Inner, ct.Inner[sk.Index])
}

// MarshalCiphertext encodes ct as len(inner) followed by each slot's
// one-query ciphertext through ssfe.MarshalCiphertext.
func MarshalCiphertext[SK any](ct Ciphertext[SK], marshalSK func(SK) ([]byte, error)) ([]byte, error) {
	var numBuf [4]byte
	binary.BigEndian.PutUint32(numBuf[:], uint32(len(ct.Inner)))
	buf := append([]byte(nil), numBuf[:]...)

	for i, inner := range ct.Inner {
		raw, err := ssfe.MarshalCiphertext(inner, marshalSK)
		if err != nil {
			return nil, errors.Wrapf(err, "statefulfe: MarshalCiphertext: slot %d", i)
		}
		buf = appendBlob(buf, raw)
	}
	return buf, nil
}

// UnmarshalCiphertext decodes the format produced by
// MarshalCiphertext.
func UnmarshalCiphertext[SK any](data []byte, unmarshalSK func([]byte) (SK, error)) (Ciphertext[SK], error) {
	if len(data) < 4 {
		return Ciphertext[SK]{}, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(data)
	rest := data[4:]

	inner := make([]ssfe.Ciphertext[SK], n)
	for i := range inner {
		var raw []byte
		var err error
		raw, rest, err = readBlob(rest)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "statefulfe: UnmarshalCiphertext: slot %d", i)
		}
		ct, err := ssfe.UnmarshalCiphertext(raw, unmarshalSK)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "statefulfe: UnmarshalCiphertext: slot %d", i)
		}
		inner[i] = ct
	}
	return Ciphertext[SK]{Inner: inner}, nil
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
