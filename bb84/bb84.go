// Package bb84 simulates the BB84 quantum key distribution protocol between
// Alice and Bob, optionally with an intercept-resend eavesdropper, and decides
// whether the resulting key is secure.
package bb84

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/qkdlab/bb84sim/bb84/photon"
)

var (
	DefaultThreshold        = 0.11
	DefaultSampleProportion = 0.25
	DefaultSampleCap        = 20
)

// Opts packages together the arguments for NewRunner. Every field may be left
// zero to take its default.
type Opts struct {
	// Rand provides every random choice of the run. Defaults to a fresh
	// NewCryptoSource(). Use NewSource for reproducible runs.
	Rand RandomSource

	// Threshold is the QBER at or above which a key is judged compromised.
	// Zero selects DefaultThreshold.
	Threshold float64

	// SampleProportion specifies the proportion of sifted bits to disclose
	// during error rate estimation, and SampleCap bounds the disclosed count.
	// Default to DefaultSampleProportion and DefaultSampleCap.
	SampleProportion float64
	SampleCap        int

	// Noise is the probability that the channel flips a qubit in flight.
	// Defaults to a perfect channel.
	Noise float64

	// KeepTranscript records every Transmission in the Outcome.
	KeepTranscript bool

	// WinnowIters, if non-empty, enables Winnow reconciliation of secure keys
	// with the given sequence of Hamming bit counts, e.g. {3, 3, 4}.
	WinnowIters []int

	// Logger receives state transitions at debug level. Defaults to
	// discarding output.
	Logger *log.Logger
}

// A Runner executes protocol runs. A Runner owns its RandomSource and is not
// safe for concurrent use.
type Runner struct {
	rand        RandomSource
	threshold   float64
	sampleProp  float64
	sampleCap   int
	noise       float64
	transcript  bool
	winnowIters []int
	logger      *log.Logger
}

// NewRunner returns a Runner configured in accordance with opts, or an error
// if the options are nonsensical.
func NewRunner(opts Opts) (*Runner, error) {
	r := &Runner{
		rand:        opts.Rand,
		threshold:   opts.Threshold,
		sampleProp:  opts.SampleProportion,
		sampleCap:   opts.SampleCap,
		noise:       opts.Noise,
		transcript:  opts.KeepTranscript,
		winnowIters: opts.WinnowIters,
		logger:      opts.Logger,
	}
	if r.rand == nil {
		r.rand = NewCryptoSource()
	}
	if r.threshold == 0 {
		r.threshold = DefaultThreshold
	}
	if r.sampleProp == 0 {
		r.sampleProp = DefaultSampleProportion
	}
	if r.sampleCap == 0 {
		r.sampleCap = DefaultSampleCap
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	if r.threshold < 0 || r.threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidArgument, r.threshold)
	}
	if r.sampleProp < 0 || r.sampleProp > 1 {
		return nil, fmt.Errorf("%w: sample proportion %v outside [0, 1]", ErrInvalidArgument, r.sampleProp)
	}
	if r.sampleCap < 0 {
		return nil, fmt.Errorf("%w: negative sample cap %d", ErrInvalidArgument, r.sampleCap)
	}
	if r.noise < 0 || r.noise > 1 {
		return nil, fmt.Errorf("%w: noise %v outside [0, 1]", ErrInvalidArgument, r.noise)
	}
	for _, h := range r.winnowIters {
		if h < 1 || h > 16 {
			return nil, fmt.Errorf("%w: winnow hamming bits %d outside [1, 16]", ErrInvalidArgument, h)
		}
	}
	return r, nil
}

// RunProtocol performs one BB84 run with default options and a fresh
// cryptographically secure RandomSource.
func RunProtocol(keyLength int, hasEve bool) (Outcome, error) {
	r, err := NewRunner(Opts{})
	if err != nil {
		return Outcome{}, err
	}
	return r.Run(keyLength, hasEve)
}

// A run tracks the state machine of a single protocol execution.
type run struct {
	state  State
	logger *log.Logger
}

func (rn *run) advance(to State, keyvals ...interface{}) error {
	if !rn.state.canAdvance(to) {
		return fmt.Errorf("BUG: illegal transition %v -> %v", rn.state, to)
	}
	rn.logger.Debug("transition", append([]interface{}{"from", rn.state, "to", to}, keyvals...)...)
	rn.state = to
	return nil
}

// Run sends keyLength qubits from Alice to Bob, intercepted by Eve iff hasEve,
// and judges the sifted key. keyLength must be positive.
func (r *Runner) Run(keyLength int, hasEve bool) (Outcome, error) {
	if keyLength < 1 {
		return Outcome{}, fmt.Errorf("%w: key length must be positive, got %d", ErrInvalidArgument, keyLength)
	}
	rn := &run{
		state:  Initialized,
		logger: r.logger.With("keyLength", keyLength, "eve", hasEve),
	}
	out := Outcome{
		KeyLengthInitial: keyLength,
		ErrorRate:        UndefinedErrorRate(),
	}

	if err := rn.advance(Transmitting); err != nil {
		return Outcome{}, err
	}
	aliceBits, err := r.rand.Bits(keyLength)
	if err != nil {
		return Outcome{}, fmt.Errorf("drawing alice's bits: %w", err)
	}
	aliceBases, err := r.rand.Bits(keyLength)
	if err != nil {
		return Outcome{}, fmt.Errorf("drawing alice's bases: %w", err)
	}
	bobBases, err := r.rand.Bits(keyLength)
	if err != nil {
		return Outcome{}, fmt.Errorf("drawing bob's bases: %w", err)
	}
	ch := photon.Channel{Eve: hasEve, Noise: r.noise, Rand: r.rand}
	bobBits, records, err := ch.TransmitAll(aliceBits, aliceBases, bobBases)
	if errors.Is(err, photon.ErrLengthMismatch) {
		return Outcome{}, fmt.Errorf("transmitting: %w: %w", ErrInvalidArgument, err)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("transmitting: %w", err)
	}
	if r.transcript {
		out.Transmissions = records
	}

	sifted, err := Sift(aliceBits, aliceBases, bobBases, bobBits)
	if err != nil {
		return Outcome{}, err
	}
	out.KeyLengthAfterSifting = sifted.Size()
	out.MatchingBases = len(sifted.Positions)
	if err := rn.advance(Sifted, "sifted", sifted.Size()); err != nil {
		return Outcome{}, err
	}
	if sifted.Size() == 0 {
		out.Status = InsufficientSifting
		return out, rn.advance(InsufficientSifting)
	}

	est, err := EstimateErrorRate(sifted, r.sampleProp, r.sampleCap, r.rand)
	if err != nil {
		return Outcome{}, fmt.Errorf("estimating error rate: %w", err)
	}
	out.ErrorRate = est.Rate
	out.SampleSize = est.SampleSize
	out.SampledPositions = est.Sampled
	if err := rn.advance(Estimated, "sample", est.SampleSize, "qber", est.Rate); err != nil {
		return Outcome{}, err
	}

	out.Status = r.judge(est.Rate)
	if out.Status == Secure {
		key := est.AliceKey
		out.FinalKey = &key
		out.KeyLengthFinal = key.Size()
		if len(r.winnowIters) > 0 {
			w := winnower{rand: r.rand, iters: r.winnowIters}
			rec, err := w.Reconcile(est.AliceKey, est.BobKey)
			if err != nil {
				return Outcome{}, fmt.Errorf("reconciling: %w", err)
			}
			out.Reconciliation = &rec
		}
	}
	return out, rn.advance(out.Status, "finalLength", out.KeyLengthFinal)
}

// judge applies the threshold policy. A key whose error rate could not be
// measured is never trusted.
func (r *Runner) judge(rate ErrorRate) State {
	v, ok := rate.Value()
	if ok && v < r.threshold {
		return Secure
	}
	return Compromised
}
