package bb84

import (
	"fmt"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
	"github.com/qkdlab/bb84sim/bb84/photon"
)

// A State is a step of a protocol run. Secure, Compromised and
// InsufficientSifting are terminal and double as the run's verdict.
type State int

const (
	Initialized State = iota
	Transmitting
	Sifted
	Estimated
	Secure
	Compromised
	InsufficientSifting
)

var stateNames = [...]string{
	Initialized:         "initialized",
	Transmitting:        "transmitting",
	Sifted:              "sifted",
	Estimated:           "estimated",
	Secure:              "secure",
	Compromised:         "compromised",
	InsufficientSifting: "insufficient_sifting",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	return s == Secure || s == Compromised || s == InsufficientSifting
}

var transitions = map[State][]State{
	Initialized:  {Transmitting},
	Transmitting: {Sifted},
	Sifted:       {Estimated, InsufficientSifting},
	Estimated:    {Secure, Compromised},
}

func (s State) canAdvance(to State) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// An Outcome is the final, immutable result of one protocol run.
type Outcome struct {
	Status    State
	ErrorRate ErrorRate

	KeyLengthInitial      int
	KeyLengthAfterSifting int
	KeyLengthFinal        int
	MatchingBases         int

	// SampleSize and SampledPositions describe the bits disclosed during
	// error estimation. Positions index the sifted key.
	SampleSize       int
	SampledPositions []int

	// FinalKey is non-nil iff Status is Secure.
	FinalKey *bitmap.Dense

	// Transmissions is populated when the runner keeps a transcript.
	Transmissions []photon.Transmission

	// Reconciliation is populated for secure runs when Winnow is enabled.
	Reconciliation *Reconciliation
}

// Message returns a one-line human summary of o.
func (o Outcome) Message() string {
	switch o.Status {
	case Secure:
		return fmt.Sprintf("Secure key generated. QBER: %s", formatRate(o.ErrorRate))
	case Compromised:
		if !o.ErrorRate.Defined() {
			return "Key discarded: too few sifted bits to estimate the error rate"
		}
		return fmt.Sprintf("Eavesdropping detected! QBER too high: %s", formatRate(o.ErrorRate))
	case InsufficientSifting:
		return "Not enough matching bases"
	default:
		return fmt.Sprintf("Run did not finish (%v)", o.Status)
	}
}

func formatRate(e ErrorRate) string {
	v, ok := e.Value()
	if !ok {
		return "undefined"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
