// Package photon models single qubits encoded as polarized photons, and the
// channel that carries them from Alice to Bob.
//
// The model is classical: a qubit is the (bit, basis) pair it was prepared
// with. Measuring in the preparing basis recovers the bit exactly, and
// measuring in the conjugate basis yields a fresh uniformly random bit. This
// reproduces the observable statistics of BB84 without simulating amplitudes.
package photon

import (
	"errors"
	"fmt"
)

// ErrConsumed is returned when a qubit that has already been measured is
// measured again.
var ErrConsumed = errors.New("qubit already measured")

// ErrLengthMismatch is returned when the bits and bases of a transmission
// differ in length.
var ErrLengthMismatch = errors.New("sequence length mismatch")

// A Basis is one of the two conjugate encoding/measurement frames.
type Basis uint8

const (
	// Rectilinear encodes 0/1 as horizontal/vertical polarization.
	Rectilinear Basis = 0
	// Diagonal encodes 0/1 as +45/-45 degree polarization, i.e. the
	// rectilinear state after a Hadamard rotation.
	Diagonal Basis = 1
)

// BasisOf maps a uniformly random bit onto a Basis.
func BasisOf(bit bool) Basis {
	if bit {
		return Diagonal
	}
	return Rectilinear
}

func (b Basis) String() string {
	switch b {
	case Rectilinear:
		return "+"
	case Diagonal:
		return "x"
	default:
		return fmt.Sprintf("Basis(%d)", uint8(b))
	}
}

// A Rand supplies the randomness consumed by measurement and interception.
type Rand interface {
	// Bit returns a uniformly random bit.
	Bit() bool
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

// A Qubit is a single encoded photon. It may be measured exactly once.
type Qubit struct {
	bit      bool
	basis    Basis
	measured bool
}

// Encode prepares a qubit carrying bit in the given basis. It is a pure
// function of its inputs.
func Encode(bit bool, basis Basis) *Qubit {
	return &Qubit{bit: bit, basis: basis}
}

// Basis reports the basis the qubit was prepared in.
func (q *Qubit) Basis() Basis {
	return q.basis
}

// Measure reads q in the given basis. On a basis match the prepared bit is
// returned; otherwise the result is drawn from r and carries no information
// about the prepared bit.
func Measure(q *Qubit, basis Basis, r Rand) (bool, error) {
	if q.measured {
		return false, ErrConsumed
	}
	q.measured = true
	if basis == q.basis {
		return q.bit, nil
	}
	return r.Bit(), nil
}

// Intercept performs an intercept-resend attack on q: Eve measures in a
// uniformly random basis and forwards a fresh qubit prepared with what she
// saw. The original qubit is consumed.
func Intercept(q *Qubit, r Rand) (forwarded *Qubit, eveBasis Basis, eveBit bool, err error) {
	eveBasis = BasisOf(r.Bit())
	eveBit, err = Measure(q, eveBasis, r)
	if err != nil {
		return nil, 0, false, fmt.Errorf("intercepting: %w", err)
	}
	return Encode(eveBit, eveBasis), eveBasis, eveBit, nil
}

// depolarize flips the bit carried by q with probability p.
func depolarize(q *Qubit, p float64, r Rand) {
	if p > 0 && r.Float64() < p {
		q.bit = !q.bit
	}
}
