//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package field

import (
	"crypto/rand"
	"math/big"
	"testing"
)

func TestEvalAndInterpolateRoundTrip(t *testing.T) {
	modulus := big.NewInt(10007)

	p, err := RandomPoly(rand.Reader, 4, modulus)
	if err != nil {
		t.Fatalf("RandomPoly: %v", err)
	}
	p.SetConstant(42)

	xs := make([]*big.Int, 5)
	ys := make([]*big.Int, 5)
	for i := range xs {
		xs[i] = big.NewInt(int64(i + 1))
		ys[i] = p.Eval(xs[i])
	}

	got, err := Interpolate(xs, ys, modulus)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	if got.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("Interpolate = %v, want 42", got)
	}
}

func TestInterpolateDuplicateXFails(t *testing.T) {
	modulus := big.NewInt(101)
	xs := []*big.Int{big.NewInt(1), big.NewInt(1)}
	ys := []*big.Int{big.NewInt(5), big.NewInt(7)}
	if _, err := Interpolate(xs, ys, modulus); err == nil {
		t.Fatal("Interpolate: expected error for duplicate x values")
	}
}
