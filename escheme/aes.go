//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package escheme

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// AESKey is both the master secret key and the public key of the
// AES scheme: AES-CFB is symmetric, so Setup's two return values are
// the same bytes, matching the reference PKEBase<AESTypes> which
// assigns pk := sk directly.
type AESKey struct {
	Key []byte
}

// AESCipherText is an AES-CFB ciphertext alongside the random IV
// used to produce it.
type AESCipherText struct {
	IV         []byte
	Ciphertext []byte
}

// AES implements ES[AESKey, AESKey, AESCipherText] with AES-CFB.
type AES struct{}

// Setup generates a fresh length-byte AES key.
func (AES) Setup(rand io.Reader, length int) (AESKey, AESKey, error) {
	if length != 16 && length != 24 && length != 32 {
		return AESKey{}, AESKey{}, errors.Wrapf(ErrKeyTooShort,
			"AES key length must be 16, 24, or 32 bytes, got %d", length)
	}
	key := make([]byte, length)
	if _, err := io.ReadFull(rand, key); err != nil {
		return AESKey{}, AESKey{}, errors.Wrap(err, "AES.Setup")
	}
	return AESKey{Key: key}, AESKey{Key: key}, nil
}

// Encrypt encrypts msg under pk with AES-CFB and a fresh random IV.
func (AES) Encrypt(rand io.Reader, pk AESKey, msg []byte) (AESCipherText, error) {
	block, err := aes.NewCipher(pk.Key)
	if err != nil {
		return AESCipherText{}, errors.Wrap(err, "AES.Encrypt")
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand, iv); err != nil {
		return AESCipherText{}, errors.Wrap(err, "AES.Encrypt")
	}

	ct := make([]byte, len(msg))
	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ct, msg)

	return AESCipherText{IV: iv, Ciphertext: ct}, nil
}

// Decrypt decrypts ct under sk with AES-CFB.
func (AES) Decrypt(sk AESKey, ct AESCipherText) ([]byte, error) {
	block, err := aes.NewCipher(sk.Key)
	if err != nil {
		return nil, errors.Wrap(err, "AES.Decrypt")
	}
	if len(ct.IV) != aes.BlockSize {
		return nil, errors.Wrap(ErrDecryptFailed, "AES.Decrypt: bad IV length")
	}

	pt := make([]byte, len(ct.Ciphertext))
	stream := cipher.NewCFBDecrypter(block, ct.IV)
	stream.XORKeyStream(pt, ct.Ciphertext)

	return pt, nil
}

// MarshalBinary encodes k as its raw key bytes.
func (k AESKey) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), k.Key...), nil
}

// UnmarshalBinary sets k's key to a copy of data.
func (k *AESKey) UnmarshalBinary(data []byte) error {
	k.Key = append([]byte(nil), data...)
	return nil
}

// MarshalBinary encodes ct as len(iv) || iv || ciphertext.
func (ct AESCipherText) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4, 4+len(ct.IV)+len(ct.Ciphertext))
	binary.BigEndian.PutUint32(buf, uint32(len(ct.IV)))
	buf = append(buf, ct.IV...)
	buf = append(buf, ct.Ciphertext...)
	return buf, nil
}

// UnmarshalBinary decodes the format produced by MarshalBinary.
func (ct *AESCipherText) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return errors.Wrap(io.ErrUnexpectedEOF, "AESCipherText.UnmarshalBinary")
	}
	ivLen := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint32(len(data)) < ivLen {
		return errors.Wrap(io.ErrUnexpectedEOF, "AESCipherText.UnmarshalBinary")
	}
	ct.IV = append([]byte(nil), data[:ivLen]...)
	ct.Ciphertext = append([]byte(nil), data[ivLen:]...)
	return nil
}
