package bb84

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
	"github.com/qkdlab/bb84sim/bb84/photon"
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// A RandomSource supplies every random choice made during a protocol run:
// Alice's bits and bases, Bob's bases, Eve's bases, the outcomes of mismatched
// measurements, and the positions sampled for error estimation.
type RandomSource interface {
	photon.Rand

	// Bits returns n independent uniform bits. A negative n is an
	// ErrInvalidArgument.
	Bits(n int) (bitmap.Dense, error)

	// Sample returns k distinct indices drawn uniformly from [0, n), in
	// ascending order.
	Sample(n, k int) ([]int, error)

	// Int63 returns a uniform non-negative 63-bit integer.
	Int63() int64
}

// A Source is the standard RandomSource. It is not safe for concurrent use;
// concurrent runs should each own a Source.
type Source struct {
	r *rand.Rand
}

// NewSource returns a reproducible Source seeded with seed. It is
// statistically uniform but must not be used where unconditional security
// matters.
func NewSource(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// NewCryptoSource returns a Source backed by the operating system's
// cryptographically secure generator.
func NewCryptoSource() *Source {
	return &Source{r: rand.New(cryptoSource{})}
}

// Bit implements photon.Rand.
func (s *Source) Bit() bool {
	return s.r.Int63()&1 == 1
}

// Float64 implements photon.Rand.
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Int63 implements RandomSource.
func (s *Source) Int63() int64 {
	return s.r.Int63()
}

// Bits implements RandomSource.
func (s *Source) Bits(n int) (bitmap.Dense, error) {
	if n < 0 {
		return bitmap.Empty(), fmt.Errorf("%w: negative bit count %d", ErrInvalidArgument, n)
	}
	buf := make([]byte, bitmap.BytesFor(n))
	s.r.Read(buf)
	return bitmap.NewDense(buf, n), nil
}

// Sample implements RandomSource.
func (s *Source) Sample(n, k int) ([]int, error) {
	if k < 0 || n < 0 || k > n {
		return nil, fmt.Errorf("%w: cannot sample %d of %d positions", ErrInvalidArgument, k, n)
	}
	idxs := make([]int, k)
	if k == 0 {
		return idxs, nil
	}
	sampleuv.WithoutReplacement(idxs, n, gonumSource{s.r})
	sort.Ints(idxs)
	return idxs, nil
}

// gonumSource exposes a math/rand generator as the Source gonum's samplers
// expect.
type gonumSource struct {
	r *rand.Rand
}

var _ exprand.Source = gonumSource{}

func (g gonumSource) Uint64() uint64 {
	return g.r.Uint64()
}

func (g gonumSource) Seed(seed uint64) {
	g.r.Seed(int64(seed))
}

// cryptoSource is a math/rand Source drawing from crypto/rand.
type cryptoSource struct{}

func (cryptoSource) Uint64() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("reading system randomness: %v", err))
	}
	return binary.LittleEndian.Uint64(b[:])
}

func (c cryptoSource) Int63() int64 {
	return int64(c.Uint64() >> 1)
}

// Seed is a no-op: the system generator cannot be reseeded.
func (cryptoSource) Seed(int64) {}
