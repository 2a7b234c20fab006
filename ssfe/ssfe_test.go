//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package ssfe

import (
	"crypto/rand"
	"testing"

	"github.com/markkurossi/bcfe/escheme"
	"github.com/markkurossi/bcfe/family"
)

func TestParityRoundTrip(t *testing.T) {
	d := family.NewParity(4)
	s := &Scheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText]{
		Description:     d,
		Inner:           escheme.AES{},
		KeyLength:       16,
		GarbleKeyLength: 16,
	}

	msk, mpk, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	instance := family.BitsInstance{Bits: []int{1, 0, 1, 1}}
	sk, err := s.KeyGen(msk, instance)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}

	msg := []int{1, 1, 0, 1}
	ct, err := s.Encrypt(rand.Reader, mpk, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := s.Decrypt(sk, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	want := 0
	for i := range msg {
		want ^= msg[i] & instance.Bits[i]
	}
	if got[0] != want {
		t.Errorf("parity = %d, want %d", got[0], want)
	}
}

func TestParityRoundTripNonzero(t *testing.T) {
	d := family.NewParity(4)
	s := &Scheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText]{
		Description:     d,
		Inner:           escheme.AES{},
		KeyLength:       16,
		GarbleKeyLength: 16,
	}

	msk, mpk, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	instance := family.BitsInstance{Bits: []int{1, 0, 0, 0}}
	sk, err := s.KeyGen(msk, instance)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}

	msg := []int{1, 0, 0, 0}
	ct, err := s.Encrypt(rand.Reader, mpk, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := s.Decrypt(sk, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got[0] != 1 {
		t.Errorf("parity = %d, want 1", got[0])
	}
}

func TestInnerProductModPRoundTrip(t *testing.T) {
	d := family.NewInnerProductModP(101, 2)
	s := &Scheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText]{
		Description:     d,
		Inner:           escheme.AES{},
		KeyLength:       16,
		GarbleKeyLength: 16,
	}

	msk, mpk, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	instance := family.ResidueInstance{ModBits: d.ModBits, Values: []int{5, 7}}
	sk, err := s.KeyGen(msk, instance)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}

	msg := []int{3, 4}
	ct, err := s.Encrypt(rand.Reader, mpk, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := s.Decrypt(sk, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	want := (5*3 + 7*4) % 101
	if got[0] != want {
		t.Errorf("inner product = %d, want %d", got[0], want)
	}
}

func TestKeyGenLengthMismatch(t *testing.T) {
	d := family.NewParity(4)
	s := &Scheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText]{
		Description:     d,
		Inner:           escheme.AES{},
		KeyLength:       16,
		GarbleKeyLength: 16,
	}

	msk, _, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	_, err = s.KeyGen(msk, family.BitsInstance{Bits: []int{1, 0}})
	if err == nil {
		t.Fatal("KeyGen: expected error for mismatched instance length")
	}
}

func TestCiphertextMarshalRoundTrip(t *testing.T) {
	d := family.NewParity(4)
	s := &Scheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText]{
		Description:     d,
		Inner:           escheme.AES{},
		KeyLength:       16,
		GarbleKeyLength: 16,
	}

	msk, mpk, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	instance := family.BitsInstance{Bits: []int{1, 0, 1, 1}}
	sk, err := s.KeyGen(msk, instance)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}

	msg := []int{1, 1, 0, 1}
	ct, err := s.Encrypt(rand.Reader, mpk, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	marshalSK := func(ct escheme.AESCipherText) ([]byte, error) { return ct.MarshalBinary() }
	unmarshalSK := func(data []byte) (escheme.AESCipherText, error) {
		var c escheme.AESCipherText
		err := c.UnmarshalBinary(data)
		return c, err
	}

	raw, err := MarshalCiphertext(ct, marshalSK)
	if err != nil {
		t.Fatalf("MarshalCiphertext: %v", err)
	}
	got, err := UnmarshalCiphertext(raw, unmarshalSK)
	if err != nil {
		t.Fatalf("UnmarshalCiphertext: %v", err)
	}

	result, err := s.Decrypt(sk, got)
	if err != nil {
		t.Fatalf("Decrypt with round-tripped ciphertext: %v", err)
	}

	want := 0
	for i := range msg {
		want ^= msg[i] & instance.Bits[i]
	}
	if result[0] != want {
		t.Errorf("parity = %d, want %d", result[0], want)
	}
}
