package main

import (
	"math"

	"github.com/qkdlab/bb84sim/bb84"
	"github.com/qkdlab/bb84sim/bb84/trials"
	"github.com/spf13/cobra"
)

// assumedEveQBER is the sifted error rate an intercept-resend attack induces.
const assumedEveQBER = 0.25

func (a *app) trialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trials",
		Short: "Run a batch of independent simulations and summarize them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.keyLength()
			if err != nil {
				return err
			}
			cfg := trials.Config{
				KeyLength: n,
				HasEve:    a.v.GetBool("eve"),
				Trials:    a.v.GetInt("trials"),
				Workers:   a.v.GetInt("workers"),
				Seed:      a.v.GetInt64("seed"),
				Crypto:    !a.v.IsSet("seed"),
				Opts:      a.opts(),
			}
			a.logger.Info("starting trials", "keyLength", n, "eve", cfg.HasEve, "trials", cfg.Trials)
			s, err := trials.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			detect := math.NaN()
			if cfg.HasEve {
				opts := a.opts()
				k := bb84.SampleSize(int(math.Round(s.MeanSifted)), opts.SampleProportion, opts.SampleCap)
				if p, err := trials.DetectionProbability(k, assumedEveQBER, opts.Threshold); err == nil {
					detect = p
				}
			}
			renderSummary(cmd.OutOrStdout(), s, detect)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int("key-length", 100, "The number of qubits Alice sends per run.")
	f.Bool("eve", false, "Intercept and resend every qubit.")
	f.Int("trials", 1000, "The number of runs.")
	f.Int("workers", 0, "Concurrent runs. Defaults to GOMAXPROCS.")
	f.Int64("seed", 0, "Seed for a reproducible batch. Cryptographic randomness if unset.")
	return cmd
}
