package photon

import (
	"fmt"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
)

// A Transmission records the fate of a single qubit sent from Alice to Bob.
type Transmission struct {
	Index      int
	AliceBit   bool
	AliceBasis Basis
	BobBasis   Basis
	BobBit     bool

	// Intercepted is set iff Eve measured this qubit, in which case EveBasis
	// and EveBit hold her choice and result.
	Intercepted bool
	EveBasis    Basis
	EveBit      bool
}

// Sifted reports whether Alice and Bob chose the same basis.
func (t Transmission) Sifted() bool {
	return t.AliceBasis == t.BobBasis
}

// A Channel carries qubits from Alice to Bob.
type Channel struct {
	// Eve, if set, intercepts and resends every qubit.
	Eve bool

	// Noise is the probability that a qubit's bit is flipped in flight,
	// independently of Eve. Zero consumes no randomness.
	Noise float64

	Rand Rand
}

// Transmit sends one bit from Alice to Bob and returns the resulting record.
func (c Channel) Transmit(i int, aliceBit bool, aliceBasis, bobBasis Basis) (Transmission, error) {
	t := Transmission{
		Index:      i,
		AliceBit:   aliceBit,
		AliceBasis: aliceBasis,
		BobBasis:   bobBasis,
	}
	q := Encode(aliceBit, aliceBasis)
	if c.Eve {
		fwd, eb, ebit, err := Intercept(q, c.Rand)
		if err != nil {
			return Transmission{}, err
		}
		q = fwd
		t.Intercepted, t.EveBasis, t.EveBit = true, eb, ebit
	}
	depolarize(q, c.Noise, c.Rand)
	bit, err := Measure(q, bobBasis, c.Rand)
	if err != nil {
		return Transmission{}, err
	}
	t.BobBit = bit
	return t, nil
}

// TransmitAll sends every position of aliceBits, encoded per aliceBases and
// measured per bobBases, and returns Bob's results alongside the per-position
// records.
func (c Channel) TransmitAll(aliceBits, aliceBases, bobBases bitmap.Dense) (bobBits bitmap.Dense, records []Transmission, err error) {
	n := aliceBits.Size()
	if aliceBases.Size() != n || bobBases.Size() != n {
		return bitmap.Empty(), nil, fmt.Errorf("%w: %d bits, %d alice bases, %d bob bases",
			ErrLengthMismatch, n, aliceBases.Size(), bobBases.Size())
	}
	bobBits = bitmap.NewDense(nil, n)
	records = make([]Transmission, 0, n)
	for i := 0; i < n; i++ {
		t, err := c.Transmit(i, aliceBits.Get(i), BasisOf(aliceBases.Get(i)), BasisOf(bobBases.Get(i)))
		if err != nil {
			return bitmap.Empty(), nil, fmt.Errorf("transmitting qubit %d: %w", i, err)
		}
		bobBits.Set(i, t.BobBit)
		records = append(records, t)
	}
	return bobBits, records, nil
}
