//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Package field implements the prime-field polynomial arithmetic the
// GVW bounded-collusion lift needs for Shamir secret sharing: random
// polynomial sampling with a fixed constant term, point evaluation,
// and Lagrange interpolation at x=0.
package field

import (
	crand "crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// Poly is a polynomial over Z_Modulus; Coeffs[i] is the coefficient
// of x^i.
type Poly struct {
	Coeffs  []*big.Int
	Modulus *big.Int
}

// RandomPoly draws a polynomial of degree strictly less than degree,
// with uniformly random coefficients in [0, modulus), matching NTL's
// random(poly, degree) (NTL::random(x,n) draws a degree-<n
// polynomial).
func RandomPoly(rand io.Reader, degree int, modulus *big.Int) (*Poly, error) {
	coeffs := make([]*big.Int, degree)
	for i := range coeffs {
		c, err := crand.Int(rand, modulus)
		if err != nil {
			return nil, errors.Wrap(err, "field: RandomPoly")
		}
		coeffs[i] = c
	}
	return &Poly{Coeffs: coeffs, Modulus: new(big.Int).Set(modulus)}, nil
}

// SetConstant overwrites the constant (x^0) term.
func (p *Poly) SetConstant(v int64) {
	c := new(big.Int).Mod(big.NewInt(v), p.Modulus)
	if len(p.Coeffs) == 0 {
		p.Coeffs = []*big.Int{c}
		return
	}
	p.Coeffs[0] = c
}

// Eval evaluates p at x using Horner's method mod p.Modulus.
func (p *Poly) Eval(x *big.Int) *big.Int {
	result := new(big.Int)
	for i := len(p.Coeffs) - 1; i >= 0; i-- {
		result.Mul(result, x)
		result.Add(result, p.Coeffs[i])
		result.Mod(result, p.Modulus)
	}
	return result
}

// Interpolate recovers f(0) for the unique polynomial of degree <
// len(xs) passing through the points (xs[i], ys[i]), via Lagrange
// interpolation at x=0, working mod modulus. modulus must be prime
// and the xs distinct mod modulus.
func Interpolate(xs, ys []*big.Int, modulus *big.Int) (*big.Int, error) {
	if len(xs) != len(ys) {
		return nil, errors.New("field: Interpolate: xs/ys length mismatch")
	}

	result := new(big.Int)
	for i := range xs {
		term := new(big.Int).Set(ys[i])
		for j := range xs {
			if i == j {
				continue
			}
			num := new(big.Int).Neg(xs[j])
			num.Mod(num, modulus)

			den := new(big.Int).Sub(xs[i], xs[j])
			den.Mod(den, modulus)
			denInv := new(big.Int).ModInverse(den, modulus)
			if denInv == nil {
				return nil, errors.New("field: Interpolate: modulus not prime or xs not distinct")
			}

			factor := new(big.Int).Mul(num, denInv)
			factor.Mod(factor, modulus)

			term.Mul(term, factor)
			term.Mod(term, modulus)
		}
		result.Add(result, term)
		result.Mod(result, modulus)
	}
	return result, nil
}
