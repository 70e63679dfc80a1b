package bb84

import (
	"fmt"
	"math"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
)

// An ErrorRate is an observed QBER, or the lack of one when no positions could
// be sampled. The zero value is undefined.
type ErrorRate struct {
	value   float64
	defined bool
}

// UndefinedErrorRate returns the rate reported when nothing was sampled.
func UndefinedErrorRate() ErrorRate {
	return ErrorRate{}
}

// DefinedErrorRate wraps an observed rate.
func DefinedErrorRate(v float64) ErrorRate {
	return ErrorRate{value: v, defined: true}
}

// Defined reports whether a sample was actually taken.
func (e ErrorRate) Defined() bool {
	return e.defined
}

// Value returns the observed rate and whether it is defined.
func (e ErrorRate) Value() (float64, bool) {
	return e.value, e.defined
}

func (e ErrorRate) String() string {
	if !e.defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", e.value)
}

// An Estimate is the result of publicly comparing a sample of the sifted key.
type Estimate struct {
	Rate       ErrorRate
	SampleSize int
	Errors     int

	// Sampled holds the sifted-key indices that were disclosed, ascending.
	Sampled []int

	// AliceKey and BobKey hold the undisclosed remainder of each party's
	// sifted key, in sifted order. AliceKey is the final key.
	AliceKey bitmap.Dense
	BobKey   bitmap.Dense
}

// SampleSize returns min(floor(sifted*proportion), limit).
func SampleSize(sifted int, proportion float64, limit int) int {
	k := int(math.Floor(float64(sifted) * proportion))
	if k > limit {
		k = limit
	}
	return k
}

// EstimateErrorRate discloses a random sample of the sifted key, measures the
// fraction of sampled positions on which Alice and Bob disagree, and removes
// the sample from both keys. If the sample would be empty the returned rate is
// undefined and nothing is removed.
func EstimateErrorRate(key SiftedKey, proportion float64, limit int, r RandomSource) (Estimate, error) {
	n := key.Size()
	if n == 0 {
		return Estimate{}, ErrEmptySiftedKey
	}
	if key.Bob.Size() != n {
		return Estimate{}, fmt.Errorf("%w: alice has %d sifted bits, bob %d", ErrLengthMismatch, n, key.Bob.Size())
	}
	if proportion <= 0 || proportion > 1 || limit < 0 {
		return Estimate{}, fmt.Errorf("%w: sample proportion %v, limit %d", ErrInvalidArgument, proportion, limit)
	}
	k := SampleSize(n, proportion, limit)
	sampled, err := r.Sample(n, k)
	if err != nil {
		return Estimate{}, fmt.Errorf("sampling sifted key: %w", err)
	}

	inSample := bitmap.NewDense(nil, n)
	for _, i := range sampled {
		inSample.Set(i, true)
	}
	disagree := bitmap.XOr(key.Alice, key.Bob)
	errs := bitmap.CountOnes(bitmap.And(disagree, inSample))

	keep := bitmap.Not(inSample)
	est := Estimate{
		Rate:       UndefinedErrorRate(),
		SampleSize: k,
		Errors:     errs,
		Sampled:    sampled,
		AliceKey:   bitmap.Select(key.Alice, keep),
		BobKey:     bitmap.Select(key.Bob, keep),
	}
	if k > 0 {
		est.Rate = DefinedErrorRate(float64(errs) / float64(k))
	}
	return est, nil
}
