//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package escheme

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// RSA implements ES[*rsa.PrivateKey, *rsa.PublicKey, []byte] with
// RSA-OAEP-SHA256, matching the reference PKEBase<RSATypes>'s use of
// CryptoPP::RSAES_OAEP_SHA.
type RSA struct{}

// Setup generates a fresh length-bit RSA key pair.
func (RSA) Setup(r io.Reader, length int) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	sk, err := rsa.GenerateKey(r, length)
	if err != nil {
		return nil, nil, errors.Wrap(err, "RSA.Setup")
	}
	return sk, &sk.PublicKey, nil
}

// Encrypt encrypts msg under pk with RSA-OAEP-SHA256. Note that
// Encrypt's rand argument is ignored here in favor of crypto/rand:
// rsa.EncryptOAEP requires a true CSPRNG and the ES interface's rand
// parameter exists to make callers thread their own source, but OAEP
// padding is not safe to derive from a caller-supplied deterministic
// reader the way a symmetric IV is.
func (RSA) Encrypt(_ io.Reader, pk *rsa.PublicKey, msg []byte) ([]byte, error) {
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pk, msg, nil)
	if err != nil {
		return nil, errors.Wrap(err, "RSA.Encrypt")
	}
	return ct, nil
}

// Decrypt decrypts ct under sk with RSA-OAEP-SHA256.
func (RSA) Decrypt(sk *rsa.PrivateKey, ct []byte) ([]byte, error) {
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, sk, ct, nil)
	if err != nil {
		return nil, errors.Wrap(ErrDecryptFailed, err.Error())
	}
	return pt, nil
}

// MarshalRSAPrivateKey encodes sk as the 8-tuple (n, e, d, p, q, dP,
// dQ, qInv), each a length-prefixed big-endian unsigned integer. A
// *rsa.PrivateKey cannot carry its own MarshalBinary method since it
// belongs to crypto/rsa, so this free function plays that role.
func MarshalRSAPrivateKey(sk *rsa.PrivateKey) ([]byte, error) {
	if len(sk.Primes) != 2 {
		return nil, errors.Errorf("escheme: RSA key must have exactly two primes, got %d", len(sk.Primes))
	}
	sk.Precompute()

	var buf []byte
	for _, v := range []*big.Int{
		sk.N, big.NewInt(int64(sk.E)), sk.D,
		sk.Primes[0], sk.Primes[1],
		sk.Precomputed.Dp, sk.Precomputed.Dq, sk.Precomputed.Qinv,
	} {
		buf = appendBigInt(buf, v)
	}
	return buf, nil
}

// UnmarshalRSAPrivateKey decodes the format produced by
// MarshalRSAPrivateKey.
func UnmarshalRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	vals := make([]*big.Int, 8)
	rest := data
	for i := range vals {
		v, tail, err := readBigInt(rest)
		if err != nil {
			return nil, errors.Wrap(err, "UnmarshalRSAPrivateKey")
		}
		vals[i] = v
		rest = tail
	}

	sk := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: vals[0], E: int(vals[1].Int64())},
		D:         vals[2],
		Primes:    []*big.Int{vals[3], vals[4]},
	}
	sk.Precompute()
	return sk, nil
}

// MarshalRSAPublicKey encodes pk as the pair (n, e).
func MarshalRSAPublicKey(pk *rsa.PublicKey) ([]byte, error) {
	var buf []byte
	buf = appendBigInt(buf, pk.N)
	buf = appendBigInt(buf, big.NewInt(int64(pk.E)))
	return buf, nil
}

// UnmarshalRSAPublicKey decodes the format produced by
// MarshalRSAPublicKey.
func UnmarshalRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	n, rest, err := readBigInt(data)
	if err != nil {
		return nil, errors.Wrap(err, "UnmarshalRSAPublicKey")
	}
	e, _, err := readBigInt(rest)
	if err != nil {
		return nil, errors.Wrap(err, "UnmarshalRSAPublicKey")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// appendBigInt appends v as a length-prefixed big-endian unsigned
// integer, minimal length (big.Int.Bytes strips leading zeros).
func appendBigInt(buf []byte, v *big.Int) []byte {
	b := v.Bytes()
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, b...)
}

// readBigInt reads one appendBigInt-encoded integer off the front of
// data, returning the remaining bytes.
func readBigInt(data []byte) (*big.Int, []byte, error) {
	if len(data) < 4 {
		return nil, nil, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint64(len(data)) < uint64(n) {
		return nil, nil, io.ErrUnexpectedEOF
	}
	return new(big.Int).SetBytes(data[:n]), data[n:], nil
}
