// Package trials runs batches of independent BB84 simulations concurrently and
// summarizes their statistics.
package trials

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/qkdlab/bb84sim/bb84"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config describes a batch of runs sharing the same parameters.
type Config struct {
	KeyLength int
	HasEve    bool
	Trials    int

	// Workers bounds the number of concurrent runs. Defaults to GOMAXPROCS.
	Workers int

	// Seed makes the batch reproducible: run i draws from
	// bb84.NewSource(Seed+i). Ignored when Crypto is set.
	Seed   int64
	Crypto bool

	// Opts configures every run. Opts.Rand is replaced per run.
	Opts bb84.Opts
}

// A Summary aggregates the outcomes of a batch.
type Summary struct {
	Trials              int
	Secure              int
	Compromised         int
	InsufficientSifting int

	// UndefinedRates counts runs whose sifted key was too short to sample.
	UndefinedRates int

	// QBER statistics over runs with a defined error rate. NaN if there are
	// none.
	MeanQBER   float64
	StdDevQBER float64
	MedianQBER float64

	MeanSifted float64
	MeanFinal  float64
}

// CompromisedRate returns the fraction of runs judged compromised.
func (s Summary) CompromisedRate() float64 {
	if s.Trials == 0 {
		return math.NaN()
	}
	return float64(s.Compromised) / float64(s.Trials)
}

// Run executes cfg.Trials independent runs. Each run owns its RandomSource, so
// the summary of a seeded batch does not depend on scheduling. Cancelling ctx
// stops further runs from starting and returns ctx.Err().
func Run(ctx context.Context, cfg Config) (Summary, error) {
	if cfg.Trials < 1 {
		return Summary{}, fmt.Errorf("%w: trial count must be positive, got %d", bb84.ErrInvalidArgument, cfg.Trials)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > cfg.Trials {
		workers = cfg.Trials
	}

	outs := make([]bb84.Outcome, cfg.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Trials && gctx.Err() == nil; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := runOne(cfg, i)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	return Summarize(outs), nil
}

func runOne(cfg Config, i int) (bb84.Outcome, error) {
	opts := cfg.Opts
	if cfg.Crypto {
		opts.Rand = bb84.NewCryptoSource()
	} else {
		opts.Rand = bb84.NewSource(cfg.Seed + int64(i))
	}
	r, err := bb84.NewRunner(opts)
	if err != nil {
		return bb84.Outcome{}, err
	}
	return r.Run(cfg.KeyLength, cfg.HasEve)
}

// Summarize aggregates a set of outcomes.
func Summarize(outs []bb84.Outcome) Summary {
	s := Summary{
		Trials:     len(outs),
		MeanQBER:   math.NaN(),
		StdDevQBER: math.NaN(),
		MedianQBER: math.NaN(),
	}
	var qbers, sifted, final []float64
	for _, out := range outs {
		switch out.Status {
		case bb84.Secure:
			s.Secure++
		case bb84.Compromised:
			s.Compromised++
		case bb84.InsufficientSifting:
			s.InsufficientSifting++
		}
		if v, ok := out.ErrorRate.Value(); ok {
			qbers = append(qbers, v)
		} else {
			s.UndefinedRates++
		}
		sifted = append(sifted, float64(out.KeyLengthAfterSifting))
		final = append(final, float64(out.KeyLengthFinal))
	}
	if len(qbers) > 0 {
		s.MeanQBER, s.StdDevQBER = stat.MeanStdDev(qbers, nil)
		sort.Float64s(qbers)
		s.MedianQBER = stat.Quantile(0.5, stat.Empirical, qbers, nil)
	}
	if len(outs) > 0 {
		s.MeanSifted = stat.Mean(sifted, nil)
		s.MeanFinal = stat.Mean(final, nil)
	}
	return s
}

// ErrNoSample is returned by DetectionProbability for an empty sample.
var ErrNoSample = errors.New("sample size must be positive")

// DetectionProbability returns the probability that a run whose true error
// rate on sifted bits is qber will be judged compromised, when sampleSize
// sifted bits are disclosed and compared against threshold.
func DetectionProbability(sampleSize int, qber, threshold float64) (float64, error) {
	if sampleSize < 1 {
		return 0, ErrNoSample
	}
	if qber < 0 || qber > 1 {
		return 0, fmt.Errorf("%w: qber %v outside [0, 1]", bb84.ErrInvalidArgument, qber)
	}
	// The fewest observed errors that reach the threshold, computed the same
	// way the runner compares rates.
	minErrs := 0
	for minErrs <= sampleSize && float64(minErrs)/float64(sampleSize) < threshold {
		minErrs++
	}
	if minErrs > sampleSize {
		return 0, nil
	}
	if minErrs == 0 {
		return 1, nil
	}
	b := distuv.Binomial{N: float64(sampleSize), P: qber}
	return 1 - b.CDF(float64(minErrs-1)), nil
}
