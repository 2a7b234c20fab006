//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package statefulfe

import (
	"crypto/rand"
	"testing"

	"github.com/markkurossi/bcfe/escheme"
	"github.com/markkurossi/bcfe/family"
)

func TestKeyGenOrderAndLimit(t *testing.T) {
	d := family.NewParity(4)
	s := NewScheme[escheme.AESKey, escheme.AESKey, escheme.AESCipherText](d, escheme.AES{}, 16, 16, 2)

	msk, mpk, err := s.Setup(rand.Reader)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	instance1 := family.BitsInstance{Bits: []int{1, 0, 1, 1}}
	sk1, err := s.KeyGen(msk, instance1)
	if err != nil {
		t.Fatalf("KeyGen 1: %v", err)
	}
	if sk1.Index != 0 {
		t.Errorf("sk1.Index = %d, want 0", sk1.Index)
	}

	instance2 := family.BitsInstance{Bits: []int{0, 1, 1, 0}}
	sk2, err := s.KeyGen(msk, instance2)
	if err != nil {
		t.Fatalf("KeyGen 2: %v", err)
	}
	if sk2.Index != 1 {
		t.Errorf("sk2.Index = %d, want 1", sk2.Index)
	}

	if _, err := s.KeyGen(msk, instance1); err == nil {
		t.Fatal("KeyGen: expected error once KeyLimit is exhausted")
	}

	msg := []int{1, 1, 0, 1}
	ct, err := s.Encrypt(rand.Reader, mpk, msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got1, err := s.Decrypt(sk1, ct)
	if err != nil {
		t.Fatalf("Decrypt 1: %v", err)
	}
	want1 := 0
	for i := range msg {
		want1 ^= msg[i] & instance1.Bits[i]
	}
	if got1[0] != want1 {
		t.Errorf("Decrypt 1 = %d, want %d", got1[0], want1)
	}

	got2, err := s.Decrypt(sk2, ct)
	if err != nil {
		t.Fatalf("Decrypt 2: %v", err)
	}
	want2 := 0
	for i := range msg {
		want2 ^= msg[i] & instance2.Bits[i]
	}
	if got2[0] != want2 {
		t.Errorf("Decrypt 2 = %d, want %d", got2[0], want2)
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
	roundTripped, err := s.Decrypt(sk1, gotCT)
	if err != nil {
		t.Fatalf("Decrypt with round-tripped ciphertext: %v", err)
	}
	if roundTripped[0] != want1 {
		t.Errorf("Decrypt with round-tripped ciphertext = %d, want %d", roundTripped[0], want1)
	}
}
