//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package gvwfe

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/markkurossi/bcfe/escheme"
	"github.com/markkurossi/bcfe/family"
)

func TestInnerProductModPRoundTrip(t *testing.T) {
	// keys=1, depth=2, kappa=1 gives secret_shares=1, total_shares=4,
	// so a KeyGen's Gamma (size secret_shares*depth+1=3) fits within
	// the four available shares. mod must equal the sharing modulus.
	const mod = 101
	params, err := NewParams(1, 2, 1, big.NewInt(mod), false)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}

	const numbers = 2
	s, err := NewScheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText](
		params, mod, numbers, escheme.AES{}, 16, 16)
	if err != nil {
		t.Fatalf("NewScheme: %v", err)
	}

	msk, mpk, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	instance := family.ResidueInstance{ModBits: 7, Values: []int{5, 3}}
	sk, err := s.KeyGen(rand.Reader, msk, instance)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}

	msg := []int{2, 7}
	ct, err := s.Encrypt(rand.Reader, mpk, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := s.Decrypt(sk, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	want := (instance.Values[0]*msg[0] + instance.Values[1]*msg[1]) % mod
	if got[0] != want {
		t.Errorf("inner product = %d, want %d", got[0], want)
	}
}

func TestInnerProductModPDeltaRoundTrip(t *testing.T) {
	const mod = 101
	params, err := NewParams(1, 2, 1, big.NewInt(mod), true)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}

	const numbers = 2
	s, err := NewScheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText](
		params, mod, numbers, escheme.AES{}, 16, 16)
	if err != nil {
		t.Fatalf("NewScheme: %v", err)
	}

	msk, mpk, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	instance := family.ResidueInstance{ModBits: 7, Values: []int{5, 3}}
	sk, err := s.KeyGen(rand.Reader, msk, instance)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	if len(sk.Delta) != params.DeltaSize {
		t.Fatalf("len(sk.Delta) = %d, want %d", len(sk.Delta), params.DeltaSize)
	}

	msg := []int{2, 7}
	ct, err := s.Encrypt(rand.Reader, mpk, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := s.Decrypt(sk, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	want := (instance.Values[0]*msg[0] + instance.Values[1]*msg[1]) % mod
	if got[0] != want {
		t.Errorf("inner product = %d, want %d", got[0], want)
	}
}

// TestInnerProductModPRoundTripMultiShare uses keys=2, which gives
// SecretShares=4, exercising genuine degree-3 Shamir sharing rather
// than the degree-0 (constant-polynomial) case keys=1 collapses to.
func TestInnerProductModPRoundTripMultiShare(t *testing.T) {
	const mod = 101
	params, err := NewParams(2, 2, 1, big.NewInt(mod), false)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	if params.SecretShares != 4 {
		t.Fatalf("SecretShares = %d, want 4", params.SecretShares)
	}

	const numbers = 2
	s, err := NewScheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText](
		params, mod, numbers, escheme.AES{}, 16, 16)
	if err != nil {
		t.Fatalf("NewScheme: %v", err)
	}

	msk, mpk, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	instance := family.ResidueInstance{ModBits: 7, Values: []int{5, 3}}
	sk, err := s.KeyGen(rand.Reader, msk, instance)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}

	msg := []int{2, 7}
	ct, err := s.Encrypt(rand.Reader, mpk, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := s.Decrypt(sk, ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	want := (instance.Values[0]*msg[0] + instance.Values[1]*msg[1]) % mod
	if got[0] != want {
		t.Errorf("inner product = %d, want %d", got[0], want)
	}
}

// TestNewParamsRejectsSmallModulus covers the modulus<=total_shares
// construction-time rejection.
func TestNewParamsRejectsSmallModulus(t *testing.T) {
	// keys=1, depth=2, kappa=1 gives total_shares=4; a modulus of 3
	// cannot hold 4 distinct nonzero evaluation points.
	if _, err := NewParams(1, 2, 1, big.NewInt(3), false); err == nil {
		t.Fatal("NewParams: expected error for modulus <= total shares")
	}
}

func TestCiphertextMarshalRoundTrip(t *testing.T) {
	const mod = 101
	params, err := NewParams(1, 2, 1, big.NewInt(mod), false)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}

	const numbers = 2
	s, err := NewScheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText](
		params, mod, numbers, escheme.AES{}, 16, 16)
	if err != nil {
		t.Fatalf("NewScheme: %v", err)
	}

	msk, mpk, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	instance := family.ResidueInstance{ModBits: 7, Values: []int{5, 3}}
	sk, err := s.KeyGen(rand.Reader, msk, instance)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}

	msg := []int{2, 7}
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
	gotCT, err := UnmarshalCiphertext(raw, unmarshalSK)
	if err != nil {
		t.Fatalf("UnmarshalCiphertext: %v", err)
	}

	got, err := s.Decrypt(sk, gotCT)
	if err != nil {
		t.Fatalf("Decrypt with round-tripped ciphertext: %v", err)
	}

	want := (instance.Values[0]*msg[0] + instance.Values[1]*msg[1]) % mod
	if got[0] != want {
		t.Errorf("inner product = %d, want %d", got[0], want)
	}
}

func TestNewSchemeRejectsMismatchedModulus(t *testing.T) {
	params, err := NewParams(1, 2, 1, big.NewInt(101), false)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	if _, err := NewScheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText](
		params, 11, 2, escheme.AES{}, 16, 16); err == nil {
		t.Fatal("NewScheme: expected error for mismatched circuit/sharing modulus")
	}
}
