//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package escheme implements the encryption-scheme collaborators the
// functional-encryption constructions in ssfe, statefulfe and gvwfe
// are built over: a generic ES interface with AES-CFB and RSA-OAEP
// implementations, and the Singleton noncommitting-encryption
// wrapper that lifts any ES into one suitable for the Sahai-
// Seyalioglu one-query FE construction.
package escheme

import (
	"io"

	"github.com/pkg/errors"
)

// ES is an encryption scheme: Setup produces a key pair, Encrypt/
// Decrypt move a plaintext byte slice under that pair. MSK and MPK
// are typically the same underlying secret for a symmetric scheme
// (AES) and distinct for an asymmetric one (RSA); SK is the
// ciphertext type Encrypt produces and Decrypt consumes.
type ES[MSK, MPK, SK any] interface {
	Setup(rand io.Reader, length int) (MSK, MPK, error)
	Encrypt(rand io.Reader, pk MPK, msg []byte) (SK, error)
	Decrypt(sk MSK, ct SK) ([]byte, error)
}

// Sentinel errors distinguishing precondition violations from
// cryptographic failures, per the module's error-handling contract.
var (
	// ErrDecryptFailed indicates a ciphertext failed to decrypt
	// under the given key (corrupted ciphertext, wrong key, or a
	// failed authenticity/padding check).
	ErrDecryptFailed = errors.New("escheme: decryption failed")

	// ErrKeyTooShort indicates a requested key length is too small
	// for the underlying primitive to operate securely.
	ErrKeyTooShort = errors.New("escheme: key length too short")
)
