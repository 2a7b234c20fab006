//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package gvwfe implements the GVW bounded-collusion lift of a
// one-query functional encryption scheme: a message is Shamir-shared
// across a large pool of independent one-query instances, and a key
// for up to KeyLimit colluding keys reveals only a random subset of
// shares small enough that no coalition of keys can pool enough
// shares to reconstruct anything beyond the function's output.
package gvwfe

import (
	crand "crypto/rand"
	"encoding/binary"
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/markkurossi/bcfe/escheme"
	"github.com/markkurossi/bcfe/family"
	"github.com/markkurossi/bcfe/field"
	"github.com/markkurossi/bcfe/ssfe"
)

// ErrModulusTooSmall is returned when a Shamir-sharing modulus does
// not exceed the total number of shares it must hold distinct
// polynomial evaluation points for.
var ErrModulusTooSmall = errors.New("gvwfe: modulus must exceed total shares")

// Params fixes a GVW lift's share counts.
type Params struct {
	KeyLimit      int
	Depth         int
	SecretShares  int
	TotalShares   int
	DeltaSize     int
	DeltaPoolSize int
	Modulus       *big.Int
	UseDelta      bool
}

// validate checks the precondition every GVW construction needs:
// Modulus must exceed TotalShares, since shares are evaluated at the
// points 1..TotalShares and must remain distinct residues mod
// Modulus for Lagrange interpolation to recover the right value.
func (p Params) validate() error {
	if p.Modulus == nil || p.Modulus.Cmp(big.NewInt(int64(p.TotalShares))) <= 0 {
		return errors.Wrapf(ErrModulusTooSmall, "modulus=%v, total shares=%d", p.Modulus, p.TotalShares)
	}
	return nil
}

// NewParams derives share counts the way GVW's "suggested
// parameters" constructor does: secret_shares = keys^2*kappa,
// total_shares = depth^2*keys^2*secret_shares, delta_size = kappa,
// delta_pool_size = delta_size*keys^2. modulus must be prime and
// greater than the resulting total_shares.
func NewParams(keys, depth, kappa int, modulus *big.Int, useDelta bool) (Params, error) {
	secretShares := keys * keys * kappa
	totalShares := depth * depth * keys * keys * secretShares
	deltaSize := kappa
	deltaPoolSize := deltaSize * keys * keys
	params := Params{
		KeyLimit:      keys,
		Depth:         depth,
		SecretShares:  secretShares,
		TotalShares:   totalShares,
		DeltaSize:     deltaSize,
		DeltaPoolSize: deltaPoolSize,
		Modulus:       modulus,
		UseDelta:      useDelta,
	}
	if err := params.validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// MasterSecretKey holds one inner one-query master secret key per
// Shamir share.
type MasterSecretKey[MSK any] struct {
	Keys []ssfe.MasterSecretKey[MSK]
}

// MasterPublicKey holds one inner one-query master public key per
// Shamir share.
type MasterPublicKey[MPK any] struct {
	Keys []ssfe.MasterPublicKey[MPK]
}

// SecretKey names the shares a derived key was issued against (Gamma)
// and, when the Delta gadget is in use, which delta-pool slots are
// active (Delta), plus one one-query secret key per named share.
type SecretKey[MSK any] struct {
	Gamma []int
	Delta []int
	Keys  []ssfe.SecretKey[MSK]
}

// Ciphertext holds one one-query ciphertext per Shamir share.
type Ciphertext[SK any] struct {
	Inner []ssfe.Ciphertext[SK]
}

// Scheme lifts an ssfe.Scheme over an inner-product-mod-p family into
// a GVW bounded-collusion scheme.
type Scheme[MSK, MPK, SK any] struct {
	Params Params
	Inner  *ssfe.Scheme[MSK, MPK, SK]
}

// NewScheme builds a GVW lift over an inner-product-mod-p instance of
// numbers mod-p residues. mod must equal params.Modulus: share values
// must fit in [0,mod) and the circuit's modular arithmetic must be
// over the same field the Shamir sharing is done in. When
// params.UseDelta is set, the universal circuit ssfe garbles is the
// Delta-augmented variant, matching the reference constructor's
// substitution of an InnerProductModPDeltaCircuitDescription for the
// plain one. keyLength is passed to the inner scheme's Setup;
// garbleKeyLength is the independent AES key byte length used to
// garble each one-query circuit.
func NewScheme[MSK, MPK, SK any](params Params, mod, numbers int, inner escheme.ES[MSK, MPK, SK], keyLength, garbleKeyLength int) (*Scheme[MSK, MPK, SK], error) {
	if err := params.validate(); err != nil {
		return nil, errors.Wrap(err, "gvwfe: NewScheme")
	}
	if big.NewInt(int64(mod)).Cmp(params.Modulus) != 0 {
		return nil, errors.Errorf("gvwfe: NewScheme: circuit modulus %d does not match sharing field modulus %v", mod, params.Modulus)
	}

	var d *family.Description
	if params.UseDelta {
		d = family.NewInnerProductModPDelta(mod, numbers, params.DeltaPoolSize)
	} else {
		d = family.NewInnerProductModP(mod, numbers)
	}
	return &Scheme[MSK, MPK, SK]{
		Params: params,
		Inner: &ssfe.Scheme[MSK, MPK, SK]{
			Description:     d,
			Inner:           inner,
			KeyLength:       keyLength,
			GarbleKeyLength: garbleKeyLength,
		},
	}, nil
}

// Setup generates Params.TotalShares independent one-query key pairs.
func (s *Scheme[MSK, MPK, SK]) Setup(rnd io.Reader) (MasterSecretKey[MSK], MasterPublicKey[MPK], error) {
	n := s.Params.TotalShares
	msk := MasterSecretKey[MSK]{Keys: make([]ssfe.MasterSecretKey[MSK], n)}
	mpk := MasterPublicKey[MPK]{Keys: make([]ssfe.MasterPublicKey[MPK], n)}

	for i := 0; i < n; i++ {
		sk, pk, err := s.Inner.Setup(rnd)
		if err != nil {
			return MasterSecretKey[MSK]{}, MasterPublicKey[MPK]{}, errors.Wrapf(err, "gvwfe: Setup share %d", i)
		}
		msk.Keys[i] = sk
		mpk.Keys[i] = pk
	}
	return msk, mpk, nil
}

// KeyGen picks a random Gamma subset of share indices (and, when
// using the Delta gadget, a random Delta subset of pool slots), then
// issues a one-query key for instance (Delta-augmented, if
// applicable) against each chosen share's master secret key.
func (s *Scheme[MSK, MPK, SK]) KeyGen(rnd io.Reader, msk MasterSecretKey[MSK], instance family.ResidueInstance) (SecretKey[MSK], error) {
	count := s.Params.SecretShares*s.Params.Depth + 1
	gamma, err := partialShuffle(rnd, s.Params.TotalShares, count)
	if err != nil {
		return SecretKey[MSK]{}, errors.Wrap(err, "gvwfe: KeyGen: Gamma")
	}

	var fullInstance family.Instance = instance
	var delta []int
	if s.Params.UseDelta {
		delta, err = partialShuffle(rnd, s.Params.DeltaPoolSize, s.Params.DeltaSize)
		if err != nil {
			return SecretKey[MSK]{}, errors.Wrap(err, "gvwfe: KeyGen: Delta")
		}
		fullInstance = family.NewDeltaInstance(instance, s.Params.DeltaPoolSize, delta)
	}

	keys := make([]ssfe.SecretKey[MSK], count)
	for i, share := range gamma {
		k, err := s.Inner.KeyGen(msk.Keys[share], fullInstance)
		if err != nil {
			return SecretKey[MSK]{}, errors.Wrapf(err, "gvwfe: KeyGen: share %d", share)
		}
		keys[i] = k
	}

	return SecretKey[MSK]{Gamma: gamma, Delta: delta, Keys: keys}, nil
}

// Encrypt splits each message value onto a degree<SecretShares random
// polynomial with that value as its constant term (and, when using
// the Delta gadget, each zeta mask onto a degree<SecretShares*Depth
// polynomial with a zero constant term), evaluates every polynomial
// at each share's point i+1, and encrypts the resulting points under
// that share's public key.
func (s *Scheme[MSK, MPK, SK]) Encrypt(rnd io.Reader, mpk MasterPublicKey[MPK], msg []int) (Ciphertext[SK], error) {
	msgPolys := make([]*field.Poly, len(msg))
	for i, v := range msg {
		p, err := field.RandomPoly(rnd, s.Params.SecretShares, s.Params.Modulus)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "gvwfe: Encrypt: message polynomial %d", i)
		}
		p.SetConstant(int64(v))
		msgPolys[i] = p
	}

	var zetaPolys []*field.Poly
	if s.Params.UseDelta {
		zetaPolys = make([]*field.Poly, s.Params.DeltaPoolSize)
		for i := range zetaPolys {
			p, err := field.RandomPoly(rnd, s.Params.SecretShares*s.Params.Depth, s.Params.Modulus)
			if err != nil {
				return Ciphertext[SK]{}, errors.Wrapf(err, "gvwfe: Encrypt: zeta polynomial %d", i)
			}
			p.SetConstant(0)
			zetaPolys[i] = p
		}
	}

	ct := Ciphertext[SK]{Inner: make([]ssfe.Ciphertext[SK], s.Params.TotalShares)}
	for i := 0; i < s.Params.TotalShares; i++ {
		x := big.NewInt(int64(i + 1))

		points := make([]int, 0, len(msg)+len(zetaPolys))
		for _, p := range msgPolys {
			points = append(points, int(p.Eval(x).Int64()))
		}
		for _, p := range zetaPolys {
			points = append(points, int(p.Eval(x).Int64()))
		}

		c, err := s.Inner.Encrypt(rnd, mpk.Keys[i], points)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "gvwfe: Encrypt: share %d", i)
		}
		ct.Inner[i] = c
	}
	return ct, nil
}

// Decrypt decrypts one output vector per Gamma share, then
// interpolates each output coordinate's degree<len(Gamma) polynomial
// at x=0 to recover the unmasked value. The zeta polynomials' zero
// constant term guarantees any Delta-gadget contribution vanishes at
// x=0, so no separate unmasking step is needed.
func (s *Scheme[MSK, MPK, SK]) Decrypt(sk SecretKey[MSK], ct Ciphertext[SK]) ([]int, error) {
	outputs := make([][]int, len(sk.Gamma))
	for i, share := range sk.Gamma {
		out, err := s.Inner.Decrypt(sk.Keys[i], ct.Inner[share])
		if err != nil {
			return nil, errors.Wrapf(err, "gvwfe: Decrypt: share %d", share)
		}
		outputs[i] = out
	}

	xs := make([]*big.Int, len(sk.Gamma))
	for i, share := range sk.Gamma {
		xs[i] = big.NewInt(int64(share + 1))
	}

	result := make([]int, len(outputs[0]))
	for k := range result {
		ys := make([]*big.Int, len(outputs))
		for i := range outputs {
			ys[i] = big.NewInt(int64(outputs[i][k]))
		}
		v, err := field.Interpolate(xs, ys, s.Params.Modulus)
		if err != nil {
			return nil, errors.Wrapf(err, "gvwfe: Decrypt: interpolate coordinate %d", k)
		}
		result[k] = int(v.Int64())
	}
	return result, nil
}

// MarshalCiphertext encodes ct as len(inner) followed by each share's
// one-query ciphertext through ssfe.MarshalCiphertext.
func MarshalCiphertext[SK any](ct Ciphertext[SK], marshalSK func(SK) ([]byte, error)) ([]byte, error) {
	var numBuf [4]byte
	binary.BigEndian.PutUint32(numBuf[:], uint32(len(ct.Inner)))
	buf := append([]byte(nil), numBuf[:]...)

	for i, inner := range ct.Inner {
		raw, err := ssfe.MarshalCiphertext(inner, marshalSK)
		if err != nil {
			return nil, errors.Wrapf(err, "gvwfe: MarshalCiphertext: share %d", i)
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
			return Ciphertext[SK]{}, errors.Wrapf(err, "gvwfe: UnmarshalCiphertext: share %d", i)
		}
		ct, err := ssfe.UnmarshalCiphertext(raw, unmarshalSK)
		if err != nil {
			return Ciphertext[SK]{}, errors.Wrapf(err, "gvwfe: UnmarshalCiphertext: share %d", i)
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

// partialShuffle returns the first k elements of a uniformly random
// permutation of [0,n), using a partial Fisher-Yates shuffle backed
// by a sparse map rather than a materialized n-element array, since n
// (TotalShares or DeltaPoolSize) can be far larger than k.
func partialShuffle(rnd io.Reader, n, k int) ([]int, error) {
	if k > n {
		return nil, errors.Errorf("gvwfe: partialShuffle: k=%d exceeds n=%d", k, n)
	}

	chosen := make(map[int]int, k)
	get := func(i int) int {
		if v, ok := chosen[i]; ok {
			return v
		}
		return i
	}

	result := make([]int, k)
	for i := 0; i < k; i++ {
		r, err := crand.Int(rnd, big.NewInt(int64(n-i)))
		if err != nil {
			return nil, errors.Wrap(err, "gvwfe: partialShuffle")
		}
		j := i + int(r.Int64())

		vi, vj := get(i), get(j)
		chosen[i], chosen[j] = vj, vi
		result[i] = vj
	}
	return result, nil
}
