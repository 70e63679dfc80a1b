package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/qkdlab/bb84sim/bb84/outcomelog"
	"github.com/spf13/cobra"
)

func (a *app) verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the authenticity of a recorded outcome log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.v.GetString("record")
			if path == "" {
				return fmt.Errorf("--record is required")
			}
			secret, err := a.openSecret()
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening record: %w", err)
			}
			defer f.Close()

			r, err := outcomelog.NewReader(f, secret)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i := 0; ; i++ {
				rec, err := r.Read()
				if errors.Is(err, io.EOF) {
					fmt.Fprintf(w, "%d record(s) verified\n", i)
					return nil
				}
				if err != nil {
					return fmt.Errorf("record %d: %w", i, err)
				}
				renderRecord(w, rec)
			}
		},
	}
	f := cmd.Flags()
	f.String("record", "", "The log to verify.")
	secretFlags(f, "the log was written with")
	return cmd
}
