package bb84

import (
	"errors"
	"fmt"

	"github.com/qkdlab/bb84sim/bb84/photon"
)

var (
	// ErrInvalidArgument is the root of every contract violation reported by
	// this package. Callers should test for it with errors.Is.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLengthMismatch reports bit or basis sequences of differing lengths.
	// It matches photon.ErrLengthMismatch as well.
	ErrLengthMismatch = fmt.Errorf("%w: %w", ErrInvalidArgument, photon.ErrLengthMismatch)

	// ErrEmptySiftedKey reports an attempt to estimate the error rate of an
	// empty sifted key. Runners must catch that case first and report
	// InsufficientSifting instead.
	ErrEmptySiftedKey = fmt.Errorf("%w: empty sifted key", ErrInvalidArgument)
)
