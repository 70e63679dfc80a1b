package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/qkdlab/bb84sim/bb84"
	"github.com/qkdlab/bb84sim/bb84/outcomelog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Perform a single protocol run",
		Long: `Perform a single BB84 run and print its outcome.

Examples:
  bb84sim run --key-length 100
  bb84sim run --key-length 100 --eve --seed 7 --transcript
  bb84sim run --key-length 500 --record out.log --secret pad.bin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.keyLength()
			if err != nil {
				return err
			}
			opts := a.opts()
			opts.Rand = a.source()
			opts.KeepTranscript = a.v.GetBool("transcript")
			r, err := bb84.NewRunner(opts)
			if err != nil {
				return err
			}
			eve := a.v.GetBool("eve")
			out, err := r.Run(n, eve)
			if err != nil {
				return err
			}
			a.logger.Info("run complete", "status", out.Status, "qber", out.ErrorRate)

			w := cmd.OutOrStdout()
			if opts.KeepTranscript {
				if err := renderTranscript(w, out.Transmissions); err != nil {
					return err
				}
			}
			renderOutcome(w, out)

			if path := a.v.GetString("record"); path != "" {
				rec := outcomelog.NewRecord(out, eve, time.Now())
				if err := a.writeRecord(path, rec); err != nil {
					return err
				}
				fmt.Fprintf(w, "recorded run %v to %s\n", rec.RunID, path)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Int("key-length", 100, "The number of qubits Alice sends.")
	f.Bool("eve", false, "Intercept and resend every qubit.")
	f.Int64("seed", 0, "Seed for a reproducible run. Cryptographic randomness if unset.")
	f.Bool("transcript", false, "Print every qubit's fate.")
	f.String("record", "", "Write an authenticated record of the outcome to this file.")
	secretFlags(f, "authenticating --record")
	return cmd
}

func (a *app) writeRecord(path string, rec outcomelog.Record) error {
	secret, err := a.openSecret()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating record %s: %w", path, err)
	}
	w, err := outcomelog.NewWriter(f, secret)
	if err != nil {
		f.Close()
		return err
	}
	if err := w.Write(rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// secretInfo separates keys derived for outcome logs from other uses of the
// same seed.
const secretInfo = "bb84sim outcome log"

// openSecret returns the key material named by --secret, expanded from a short
// seed when --secret-kdf is set.
func (a *app) openSecret() (io.Reader, error) {
	path := a.v.GetString("secret")
	if path == "" {
		return nil, fmt.Errorf("--secret is required to authenticate records")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	if a.v.GetBool("secret-kdf") {
		return outcomelog.DeriveSecret(b, secretInfo)
	}
	return bytes.NewReader(b), nil
}

func secretFlags(f *pflag.FlagSet, purpose string) {
	f.String("secret", "", "File of shared key material "+purpose+".")
	f.Bool("secret-kdf", false, "Treat --secret as a short seed and expand it with HKDF.")
}
