// Package policy holds the caller-side rules applied before a simulation is
// run, such as the key lengths an operator may request.
package policy

import (
	"errors"
	"fmt"
)

var (
	DefaultMinKeyLength = 10
	DefaultMaxKeyLength = 1000
)

// ErrKeyLengthOutOfRange reports a requested key length outside the Bounds.
var ErrKeyLengthOutOfRange = errors.New("key length out of range")

// Bounds constrains the initial key length of a simulation.
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds returns the bounds enforced when none are configured.
func DefaultBounds() Bounds {
	return Bounds{Min: DefaultMinKeyLength, Max: DefaultMaxKeyLength}
}

// Validate returns ErrKeyLengthOutOfRange if keyLength falls outside b.
func (b Bounds) Validate(keyLength int) error {
	if keyLength < b.Min {
		return fmt.Errorf("%w: key length must be at least %d bits, got %d", ErrKeyLengthOutOfRange, b.Min, keyLength)
	}
	if keyLength > b.Max {
		return fmt.Errorf("%w: key length cannot exceed %d bits, got %d", ErrKeyLengthOutOfRange, b.Max, keyLength)
	}
	return nil
}

// Check reports whether b itself is coherent.
func (b Bounds) Check() error {
	if b.Min < 1 || b.Max < b.Min {
		return fmt.Errorf("%w: bounds [%d, %d]", ErrKeyLengthOutOfRange, b.Min, b.Max)
	}
	return nil
}
