package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/qkdlab/bb84sim/bb84"
	"github.com/qkdlab/bb84sim/bb84/policy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "BB84SIM"

// app carries state shared by every subcommand once flags, environment and
// config file have been merged.
type app struct {
	v      *viper.Viper
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	cmd := &cobra.Command{
		Use:   "bb84sim",
		Short: "Simulate BB84 quantum key distribution",
		Long: `bb84sim simulates the BB84 protocol between Alice and Bob, optionally
with an intercept-resend eavesdropper, and reports whether the sifted key
survived the error rate check.

Every flag may also be set through the environment, e.g. BB84SIM_NOISE=0.02,
or in a config file passed with --config.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "Config file (yaml, toml or json).")
	pf.String("log-level", "warn", "One of debug, info, warn, error.")
	pf.Bool("no-color", false, "Disable colored output.")
	pf.Float64("threshold", bb84.DefaultThreshold, "The QBER at or above which a key is rejected. 0 selects the default.")
	pf.Float64("sample-proportion", bb84.DefaultSampleProportion, "The proportion of sifted bits disclosed to estimate the QBER. 0 selects the default.")
	pf.Int("sample-cap", bb84.DefaultSampleCap, "The most sifted bits ever disclosed. 0 selects the default.")
	pf.Float64("noise", 0, "The probability the channel flips a qubit in flight.")
	pf.IntSlice("winnow", nil, "Hamming bit counts for Winnow reconciliation of secure keys, e.g. 3,3,4.")
	pf.Int("min-key-length", policy.DefaultMinKeyLength, "The shortest key length accepted.")
	pf.Int("max-key-length", policy.DefaultMaxKeyLength, "The longest key length accepted.")

	cmd.AddCommand(
		a.runCmd(),
		a.trialsCmd(),
		a.verifyCmd(),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if cfg := a.v.GetString("config"); cfg != "" {
		a.v.SetConfigFile(cfg)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfg, err)
		}
	}

	lvl, err := log.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          cmd.Name(),
	})
	if a.v.GetBool("no-color") {
		color.NoColor = true
	}
	return nil
}

// opts builds runner options from the merged configuration.
func (a *app) opts() bb84.Opts {
	return bb84.Opts{
		Threshold:        a.v.GetFloat64("threshold"),
		SampleProportion: a.v.GetFloat64("sample-proportion"),
		SampleCap:        a.v.GetInt("sample-cap"),
		Noise:            a.v.GetFloat64("noise"),
		WinnowIters:      a.v.GetIntSlice("winnow"),
		Logger:           a.logger,
	}
}

// keyLength returns the requested key length once it passes the configured
// bounds.
func (a *app) keyLength() (int, error) {
	b := policy.Bounds{
		Min: a.v.GetInt("min-key-length"),
		Max: a.v.GetInt("max-key-length"),
	}
	if err := b.Check(); err != nil {
		return 0, err
	}
	n := a.v.GetInt("key-length")
	if err := b.Validate(n); err != nil {
		return 0, err
	}
	return n, nil
}

// source returns a seeded source if --seed was given, and a cryptographic one
// otherwise.
func (a *app) source() bb84.RandomSource {
	if a.v.IsSet("seed") {
		return bb84.NewSource(a.v.GetInt64("seed"))
	}
	return bb84.NewCryptoSource()
}
