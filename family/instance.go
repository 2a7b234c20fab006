//
// Copyright (c) 2019-2021 Markku Rossi
//
// All rights reserved.
//

package family

// Instance supplies the fixed values baked into the instance-side
// (y) wires of a family's universal circuit, i.e. the data a key
// generator folds into the garbled circuit. Bit must answer for
// every index in [0, Len()).
type Instance interface {
	Bit(i int) int
	Len() int
}

// BitsInstance is an Instance whose bits are already individual 0/1
// values, used by Parity and Hamming.
type BitsInstance struct {
	Bits []int
}

// Bit implements Instance.
func (b BitsInstance) Bit(i int) int { return b.Bits[i] }

// Len implements Instance.
func (b BitsInstance) Len() int { return len(b.Bits) }

// ResidueInstance is an Instance of mod-p residues, each decomposed
// into ModBits little-endian bits, used by InnerProductModP.
type ResidueInstance struct {
	ModBits int
	Values  []int
}

// Bit implements Instance.
func (r ResidueInstance) Bit(i int) int {
	return (r.Values[i/r.ModBits] >> uint(i%r.ModBits)) & 1
}

// Len implements Instance.
func (r ResidueInstance) Len() int { return len(r.Values) * r.ModBits }

// DeltaInstance extends ResidueInstance with a DeltaPoolSize-wide
// selector vector, used by InnerProductModPDelta. ActiveIndices
// names which pool slots are set to 1; every other slot is 0.
type DeltaInstance struct {
	ResidueInstance
	DeltaPoolSize int
	ActiveIndices []int
}

// NewDeltaInstance builds a DeltaInstance with its selector vector
// materialized from activeIndices.
func NewDeltaInstance(inner ResidueInstance, deltaPoolSize int, activeIndices []int) DeltaInstance {
	return DeltaInstance{
		ResidueInstance: inner,
		DeltaPoolSize:   deltaPoolSize,
		ActiveIndices:   activeIndices,
	}
}

// Bit implements Instance.
func (d DeltaInstance) Bit(i int) int {
	base := len(d.Values) * d.ModBits
	if i < base {
		return d.ResidueInstance.Bit(i)
	}
	slot := i - base
	for _, active := range d.ActiveIndices {
		if active == slot {
			return 1
		}
	}
	return 0
}

// Len implements Instance.
func (d DeltaInstance) Len() int { return len(d.Values)*d.ModBits + d.DeltaPoolSize }

// SymbolInstance is an Instance of alphabet symbols, each decomposed
// into AlphabetBits little-endian bits, used by Levenshtein.
type SymbolInstance struct {
	AlphabetBits int
	Values       []int
}

// Bit implements Instance.
func (s SymbolInstance) Bit(i int) int {
	return (s.Values[i/s.AlphabetBits] >> uint(i%s.AlphabetBits)) & 1
}

// Len implements Instance.
func (s SymbolInstance) Len() int { return len(s.Values) * s.AlphabetBits }
