//
// main.go
//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

// Command bcfe-bench runs one functional-encryption construction
// against one circuit family and reports Setup/KeyGen/Encrypt/Decrypt
// timings and serialized sizes, mirroring the reference benchmark
// driver's config-driven report.
package main

import (
	"bytes"
	"crypto/rsa"
	"encoding/gob"
	"flag"
	"fmt"
	"math"
	"math/big"
	"os"
	"time"

	"github.com/markkurossi/tabulate"

	"github.com/markkurossi/bcfe/env"
	"github.com/markkurossi/bcfe/escheme"
	"github.com/markkurossi/bcfe/family"
	"github.com/markkurossi/bcfe/gvwfe"
	"github.com/markkurossi/bcfe/ssfe"
	"github.com/markkurossi/bcfe/statefulfe"
)

type report struct {
	scheme  string
	base    string
	circuit string
	setup   time.Duration
	keyGen  time.Duration
	encrypt time.Duration
	decrypt time.Duration
	mskSize int
	mpkSize int
	skSize  int
	ctSize  int
	result  []int
}

func gobSize(v interface{}) int {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return -1
	}
	return buf.Len()
}

func randomInstanceAndMessage(d *family.Description, kind string, cfg *env.Config) (family.Instance, []int) {
	rnd := cfg.GetRandom()
	randBit := func() int {
		var b [1]byte
		rnd.Read(b[:])
		return int(b[0] & 1)
	}
	randMod := func(mod int) int {
		var b [4]byte
		rnd.Read(b[:])
		v := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
		if v < 0 {
			v = -v
		}
		return v % mod
	}

	switch kind {
	case "parity", "hamming":
		bits := make([]int, d.InputSize)
		msg := make([]int, d.InputSize)
		for i := range bits {
			bits[i] = randBit()
			msg[i] = randBit()
		}
		return family.BitsInstance{Bits: bits}, msg

	case "inner_product_mod_p":
		numbers := d.InputSize / d.ModBits
		values := make([]int, numbers)
		msg := make([]int, numbers)
		for i := range values {
			values[i] = randMod(d.Mod)
			msg[i] = randMod(d.Mod)
		}
		return family.ResidueInstance{ModBits: d.ModBits, Values: values}, msg

	case "levenshtein":
		symbols := make([]int, d.CircuitLen)
		msg := make([]int, d.InputLen)
		for i := range symbols {
			symbols[i] = randMod(1 << uint(d.AlphabetBits))
		}
		for i := range msg {
			msg[i] = randMod(1 << uint(d.AlphabetBits))
		}
		return family.SymbolInstance{AlphabetBits: d.AlphabetBits, Values: symbols}, msg

	default:
		panic(fmt.Sprintf("bcfe-bench: unknown circuit type %q", kind))
	}
}

func describeCircuit(kind string, length, circuitLength, mod, alphabetBits int) *family.Description {
	switch kind {
	case "parity":
		return family.NewParity(length)
	case "hamming":
		return family.NewHamming(length)
	case "inner_product_mod_p":
		return family.NewInnerProductModP(mod, length)
	case "levenshtein":
		return family.NewLevenshtein(length, circuitLength, alphabetBits)
	default:
		panic(fmt.Sprintf("bcfe-bench: unknown circuit type %q", kind))
	}
}

func benchSS[MSK, MPK, SK any](baseName string, inner escheme.ES[MSK, MPK, SK], keyLength, garbleKeyLength int,
	kind string, d *family.Description, cfg *env.Config) report {

	s := &ssfe.Scheme[MSK, MPK, SK]{Description: d, Inner: inner, KeyLength: keyLength, GarbleKeyLength: garbleKeyLength}
	instance, msg := randomInstanceAndMessage(d, kind, cfg)

	t0 := time.Now()
	msk, mpk, err := s.Setup(cfg.GetRandom())
	if err != nil {
		panic(err)
	}
	t1 := time.Now()

	sk, err := s.KeyGen(msk, instance)
	if err != nil {
		panic(err)
	}
	t2 := time.Now()

	ct, err := s.Encrypt(cfg.GetRandom(), mpk, msg)
	if err != nil {
		panic(err)
	}
	t3 := time.Now()

	result, err := s.Decrypt(sk, ct)
	if err != nil {
		panic(err)
	}
	t4 := time.Now()

	return report{
		scheme: "ss", base: baseName, circuit: kind,
		setup: t1.Sub(t0), keyGen: t2.Sub(t1), encrypt: t3.Sub(t2), decrypt: t4.Sub(t3),
		mskSize: gobSize(msk), mpkSize: gobSize(mpk), skSize: gobSize(sk), ctSize: gobSize(ct),
		result: result,
	}
}

func benchStateful[MSK, MPK, SK any](baseName string, inner escheme.ES[MSK, MPK, SK], keyLength, garbleKeyLength int,
	kind string, d *family.Description, cfg *env.Config, keyLimit int) report {

	s := statefulfe.NewScheme[MSK, MPK, SK](d, inner, keyLength, garbleKeyLength, keyLimit)
	instance, msg := randomInstanceAndMessage(d, kind, cfg)

	t0 := time.Now()
	msk, mpk, err := s.Setup(cfg.GetRandom())
	if err != nil {
		panic(err)
	}
	t1 := time.Now()

	sk, err := s.KeyGen(msk, instance)
	if err != nil {
		panic(err)
	}
	t2 := time.Now()

	ct, err := s.Encrypt(cfg.GetRandom(), mpk, msg)
	if err != nil {
		panic(err)
	}
	t3 := time.Now()

	result, err := s.Decrypt(sk, ct)
	if err != nil {
		panic(err)
	}
	t4 := time.Now()

	return report{
		scheme: "stateful", base: baseName, circuit: kind,
		setup: t1.Sub(t0), keyGen: t2.Sub(t1), encrypt: t3.Sub(t2), decrypt: t4.Sub(t3),
		mskSize: gobSize(msk), mpkSize: gobSize(mpk), skSize: gobSize(sk), ctSize: gobSize(ct),
		result: result,
	}
}

func benchGVW[MSK, MPK, SK any](baseName string, inner escheme.ES[MSK, MPK, SK], keyLength, garbleKeyLength int,
	numbers int, cfg *env.Config, keys, depth, kappa int, modulus *big.Int, useDelta bool) report {

	// The circuit's modular arithmetic and the Shamir-sharing field
	// must be the same modulus, so modulus serves both roles.
	mod := int(modulus.Int64())

	params, err := gvwfe.NewParams(keys, depth, kappa, modulus, useDelta)
	if err != nil {
		panic(err)
	}
	s, err := gvwfe.NewScheme[MSK, MPK, SK](params, mod, numbers, inner, keyLength, garbleKeyLength)
	if err != nil {
		panic(err)
	}

	values := make([]int, numbers)
	msg := make([]int, numbers)
	rnd := cfg.GetRandom()
	for i := range values {
		var b [1]byte
		rnd.Read(b[:])
		values[i] = int(b[0]) % mod
		rnd.Read(b[:])
		msg[i] = int(b[0]) % mod
	}
	modBits := int(math.Ceil(math.Log2(float64(mod))))
	instance := family.ResidueInstance{ModBits: modBits, Values: values}

	t0 := time.Now()
	msk, mpk, err := s.Setup(cfg.GetRandom())
	if err != nil {
		panic(err)
	}
	t1 := time.Now()

	sk, err := s.KeyGen(cfg.GetRandom(), msk, instance)
	if err != nil {
		panic(err)
	}
	t2 := time.Now()

	ct, err := s.Encrypt(cfg.GetRandom(), mpk, msg)
	if err != nil {
		panic(err)
	}
	t3 := time.Now()

	result, err := s.Decrypt(sk, ct)
	if err != nil {
		panic(err)
	}
	t4 := time.Now()

	return report{
		scheme: "gvw", base: baseName, circuit: "inner_product_mod_p",
		setup: t1.Sub(t0), keyGen: t2.Sub(t1), encrypt: t3.Sub(t2), decrypt: t4.Sub(t3),
		mskSize: gobSize(msk), mpkSize: gobSize(mpk), skSize: gobSize(sk), ctSize: gobSize(ct),
		result: result,
	}
}

func main() {
	scheme := flag.String("scheme", "ss", "FE construction: ss, stateful, gvw")
	base := flag.String("base", "aes", "Inner encryption scheme: aes, rsa, singleton_aes, singleton_rsa")
	circuitType := flag.String("circuit", "parity", "Circuit family: parity, inner_product_mod_p, hamming, levenshtein")
	length := flag.Int("length", 16, "Circuit input length")
	circuitLength := flag.Int("circuit-length", 16, "Levenshtein circuit-side string length")
	alphabetBits := flag.Int("alphabet-bits", 2, "Levenshtein alphabet width in bits")
	mod := flag.Int("mod", 11, "Inner-product-mod-p modulus")
	keyLength := flag.Int("key-length", 16, "Inner scheme key length (AES key bytes, RSA key bits)")
	garbleKeyLength := flag.Int("garble-key-length", 16, "Circuit garble AES key length in bytes (16, 24, or 32)")
	keyLimit := flag.Int("key-limit", 2, "Bounded-collusion key limit (stateful, gvw)")
	depth := flag.Int("depth", 2, "GVW circuit depth parameter")
	kappa := flag.Int("kappa", 1, "GVW security parameter kappa")
	gvwModulus := flag.Int64("gvw-modulus", 1000003, "GVW Shamir-sharing field modulus (must be prime)")
	gvwDelta := flag.Bool("gvw-delta", false, "Use the GVW Delta gadget")
	flag.Parse()

	cfg := &env.Config{}

	var r report

	switch *scheme {
	case "ss", "stateful":
		d := describeCircuit(*circuitType, *length, *circuitLength, *mod, *alphabetBits)
		switch *base {
		case "rsa":
			if *scheme == "ss" {
				r = benchSS[*rsa.PrivateKey, *rsa.PublicKey, []byte](*base, escheme.RSA{}, *keyLength, *garbleKeyLength, *circuitType, d, cfg)
			} else {
				r = benchStateful[*rsa.PrivateKey, *rsa.PublicKey, []byte](*base, escheme.RSA{}, *keyLength, *garbleKeyLength, *circuitType, d, cfg, *keyLimit)
			}
		case "singleton_aes":
			inner := escheme.Singleton[escheme.AESKey, escheme.AESKey, escheme.AESCipherText]{Inner: escheme.AES{}}
			if *scheme == "ss" {
				r = benchSS[escheme.SingletonMSK[escheme.AESKey], escheme.SingletonMPK[escheme.AESKey], escheme.SingletonCT[escheme.AESCipherText]](*base, inner, *keyLength, *garbleKeyLength, *circuitType, d, cfg)
			} else {
				r = benchStateful[escheme.SingletonMSK[escheme.AESKey], escheme.SingletonMPK[escheme.AESKey], escheme.SingletonCT[escheme.AESCipherText]](*base, inner, *keyLength, *garbleKeyLength, *circuitType, d, cfg, *keyLimit)
			}
		case "singleton_rsa":
			inner := escheme.Singleton[*rsa.PrivateKey, *rsa.PublicKey, []byte]{Inner: escheme.RSA{}}
			if *scheme == "ss" {
				r = benchSS[escheme.SingletonMSK[*rsa.PrivateKey], escheme.SingletonMPK[*rsa.PublicKey], escheme.SingletonCT[[]byte]](*base, inner, *keyLength, *garbleKeyLength, *circuitType, d, cfg)
			} else {
				r = benchStateful[escheme.SingletonMSK[*rsa.PrivateKey], escheme.SingletonMPK[*rsa.PublicKey], escheme.SingletonCT[[]byte]](*base, inner, *keyLength, *garbleKeyLength, *circuitType, d, cfg, *keyLimit)
			}
		default:
			if *scheme == "ss" {
				r = benchSS[escheme.AESKey, escheme.AESKey, escheme.AESCipherText](*base, escheme.AES{}, *keyLength, *garbleKeyLength, *circuitType, d, cfg)
			} else {
				r = benchStateful[escheme.AESKey, escheme.AESKey, escheme.AESCipherText](*base, escheme.AES{}, *keyLength, *garbleKeyLength, *circuitType, d, cfg, *keyLimit)
			}
		}

	case "gvw":
		// -gvw-modulus is both the circuit's modular-arithmetic
		// modulus and the Shamir-sharing field modulus; gvwfe.NewScheme
		// requires they match, so there is no separate -mod here.
		modulus := big.NewInt(*gvwModulus)
		switch *base {
		case "rsa":
			r = benchGVW[*rsa.PrivateKey, *rsa.PublicKey, []byte](*base, escheme.RSA{}, *keyLength, *garbleKeyLength, *length, cfg, *keyLimit, *depth, *kappa, modulus, *gvwDelta)
		case "singleton_aes":
			inner := escheme.Singleton[escheme.AESKey, escheme.AESKey, escheme.AESCipherText]{Inner: escheme.AES{}}
			r = benchGVW[escheme.SingletonMSK[escheme.AESKey], escheme.SingletonMPK[escheme.AESKey], escheme.SingletonCT[escheme.AESCipherText]](*base, inner, *keyLength, *garbleKeyLength, *length, cfg, *keyLimit, *depth, *kappa, modulus, *gvwDelta)
		case "singleton_rsa":
			inner := escheme.Singleton[*rsa.PrivateKey, *rsa.PublicKey, []byte]{Inner: escheme.RSA{}}
			r = benchGVW[escheme.SingletonMSK[*rsa.PrivateKey], escheme.SingletonMPK[*rsa.PublicKey], escheme.SingletonCT[[]byte]](*base, inner, *keyLength, *garbleKeyLength, *length, cfg, *keyLimit, *depth, *kappa, modulus, *gvwDelta)
		default:
			r = benchGVW[escheme.AESKey, escheme.AESKey, escheme.AESCipherText](*base, escheme.AES{}, *keyLength, *garbleKeyLength, *length, cfg, *keyLimit, *depth, *kappa, modulus, *gvwDelta)
		}

	default:
		fmt.Fprintf(os.Stderr, "bcfe-bench: unknown scheme %q\n", *scheme)
		os.Exit(1)
	}

	tab := tabulate.New(tabulate.Github)
	tab.Header("Scheme")
	tab.Header("Base")
	tab.Header("Circuit")
	tab.Header("Setup").SetAlign(tabulate.MR)
	tab.Header("KeyGen").SetAlign(tabulate.MR)
	tab.Header("Encrypt").SetAlign(tabulate.MR)
	tab.Header("Decrypt").SetAlign(tabulate.MR)
	tab.Header("MSK").SetAlign(tabulate.MR)
	tab.Header("MPK").SetAlign(tabulate.MR)
	tab.Header("SK").SetAlign(tabulate.MR)
	tab.Header("CT").SetAlign(tabulate.MR)
	tab.Header("Result").SetAlign(tabulate.MR)

	row := tab.Row()
	row.Column(r.scheme)
	row.Column(r.base)
	row.Column(r.circuit)
	row.Column(r.setup.String())
	row.Column(r.keyGen.String())
	row.Column(r.encrypt.String())
	row.Column(r.decrypt.String())
	row.Column(fmt.Sprintf("%dB", r.mskSize))
	row.Column(fmt.Sprintf("%dB", r.mpkSize))
	row.Column(fmt.Sprintf("%dB", r.skSize))
	row.Column(fmt.Sprintf("%dB", r.ctSize))
	row.Column(fmt.Sprintf("%v", r.result))

	tab.Print(os.Stdout)
}
