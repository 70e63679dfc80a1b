package bb84

import (
	"fmt"
	"testing"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
)

// A scriptedSource replays fixed bit sequences, answers every coin flip with
// coin, and always samples the leading positions.
type scriptedSource struct {
	bits  []bitmap.Dense
	calls int
	coin  bool
}

func (s *scriptedSource) Bits(n int) (bitmap.Dense, error) {
	if s.calls >= len(s.bits) {
		return bitmap.Empty(), fmt.Errorf("script exhausted after %d calls", s.calls)
	}
	d := s.bits[s.calls]
	s.calls++
	if d.Size() != n {
		return bitmap.Empty(), fmt.Errorf("script has %d bits, %d requested", d.Size(), n)
	}
	return d, nil
}

func (s *scriptedSource) Bit() bool        { return s.coin }
func (s *scriptedSource) Float64() float64 { return 0.5 }
func (s *scriptedSource) Int63() int64     { return 1 }

func (s *scriptedSource) Sample(n, k int) ([]int, error) {
	idxs := make([]int, k)
	for i := range idxs {
		idxs[i] = i
	}
	return idxs, nil
}

func mustDense(t *testing.T, s string) bitmap.Dense {
	t.Helper()
	d, err := bitmap.FromString(s)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	return d
}
