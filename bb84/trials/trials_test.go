package trials

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/qkdlab/bb84sim/bb84"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoEveNeverCompromised(t *testing.T) {
	s, err := Run(context.Background(), Config{KeyLength: 2000, Trials: 1000, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 1000, s.Trials)
	assert.Equal(t, 1000, s.Secure)
	assert.Zero(t, s.Compromised)
	assert.Zero(t, s.UndefinedRates)
	assert.Zero(t, s.MeanQBER)
	assert.InDelta(t, 1000, s.MeanSifted, 50)
	assert.InDelta(t, s.MeanSifted-20, s.MeanFinal, 1e-9)
}

func TestEveConcentratesNearQuarter(t *testing.T) {
	s, err := Run(context.Background(), Config{KeyLength: 2000, HasEve: true, Trials: 500, Seed: 100, Workers: 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, s.MeanQBER, 0.03)
	assert.InDelta(t, 0.25, s.MedianQBER, 0.05)
	assert.Greater(t, s.StdDevQBER, 0.0)

	want, err := DetectionProbability(20, 0.25, bb84.DefaultThreshold)
	require.NoError(t, err)
	assert.InDelta(t, want, s.CompromisedRate(), 0.05)
	assert.Greater(t, s.CompromisedRate(), 0.8)
}

func TestSeededBatchIsDeterministic(t *testing.T) {
	cfg := Config{KeyLength: 300, HasEve: true, Trials: 64, Seed: 9}
	cfg.Workers = 1
	a, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	cfg.Workers = 8
	b, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestShortKeysHaveUndefinedRates(t *testing.T) {
	s, err := Run(context.Background(), Config{KeyLength: 1, Trials: 200, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, 200, s.InsufficientSifting+s.Compromised)
	assert.Equal(t, 200, s.UndefinedRates)
	assert.Zero(t, s.Secure)
	assert.True(t, math.IsNaN(s.MeanQBER))
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Config{KeyLength: 100, Trials: 1 << 20})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCancelledMidBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Run(ctx, Config{KeyLength: 2000, Trials: 1 << 20, Workers: 2, Seed: 1})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunValidation(t *testing.T) {
	_, err := Run(context.Background(), Config{KeyLength: 10})
	require.ErrorIs(t, err, bb84.ErrInvalidArgument)
	_, err = Run(context.Background(), Config{KeyLength: 0, Trials: 3})
	require.ErrorIs(t, err, bb84.ErrInvalidArgument)
}

func TestDetectionProbability(t *testing.T) {
	tcs := []struct {
		name      string
		k         int
		qber, thr float64
		eout      float64
		delta     float64
	}{
		{"eve at default sample", 20, 0.25, 0.11, 0.9087, 0.001},
		{"clean channel", 20, 0, 0.11, 0, 1e-12},
		{"certain errors", 4, 1, 0.11, 1, 1e-12},
		// 1 error in 4 is exactly 0.25, which counts as compromised.
		{"threshold tie", 4, 0.5, 0.25, 0.9375, 1e-9},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			p, err := DetectionProbability(tc.k, tc.qber, tc.thr)
			require.NoError(t, err)
			assert.InDelta(t, tc.eout, p, tc.delta)
		})
	}
	_, err := DetectionProbability(0, 0.25, 0.11)
	require.ErrorIs(t, err, ErrNoSample)
}
