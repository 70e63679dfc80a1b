package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/qkdlab/bb84sim/bb84"
	"github.com/qkdlab/bb84sim/bb84/outcomelog"
	"github.com/qkdlab/bb84sim/bb84/photon"
	"github.com/qkdlab/bb84sim/bb84/trials"
)

func statusColor(s string) *color.Color {
	switch s {
	case bb84.Secure.String():
		return color.New(color.FgGreen, color.Bold)
	case bb84.Compromised.String():
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow)
	}
}

func renderOutcome(w io.Writer, out bb84.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "status:\t%s\n", statusColor(out.Status.String()).Sprint(out.Status))
	fmt.Fprintf(tw, "qber:\t%v\n", out.ErrorRate)
	fmt.Fprintf(tw, "initial length:\t%d\n", out.KeyLengthInitial)
	fmt.Fprintf(tw, "matching bases:\t%d\n", out.MatchingBases)
	fmt.Fprintf(tw, "sifted length:\t%d\n", out.KeyLengthAfterSifting)
	fmt.Fprintf(tw, "sample size:\t%d\n", out.SampleSize)
	fmt.Fprintf(tw, "final length:\t%d\n", out.KeyLengthFinal)
	if out.FinalKey != nil {
		fmt.Fprintf(tw, "final key:\t%v\n", out.FinalKey)
	}
	if rec := out.Reconciliation; rec != nil {
		fmt.Fprintf(tw, "reconciled length:\t%d\n", rec.AliceKey.Size())
		fmt.Fprintf(tw, "corrected bits:\t%d\n", rec.Corrected)
		fmt.Fprintf(tw, "residual errors:\t%d\n", rec.Residual)
	}
	tw.Flush()
	fmt.Fprintln(w, statusColor(out.Status.String()).Sprint(out.Message()))
}

func renderTranscript(w io.Writer, ts []photon.Transmission) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "i\talice\tbasis\teve\tbob basis\tbob\tsifted\t")
	for _, t := range ts {
		eve := "-"
		if t.Intercepted {
			eve = fmt.Sprintf("%s%d", t.EveBasis, bit(t.EveBit))
		}
		sifted := ""
		if t.Sifted() {
			sifted = "*"
			if t.AliceBit != t.BobBit {
				sifted = color.RedString("!")
			}
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%d\t%s\t\n",
			t.Index, bit(t.AliceBit), t.AliceBasis, eve, t.BobBasis, bit(t.BobBit), sifted)
	}
	return tw.Flush()
}

func renderSummary(w io.Writer, s trials.Summary, detect float64) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "trials:\t%d\n", s.Trials)
	fmt.Fprintf(tw, "secure:\t%s\n", color.GreenString("%d", s.Secure))
	fmt.Fprintf(tw, "compromised:\t%s\n", color.RedString("%d", s.Compromised))
	fmt.Fprintf(tw, "insufficient sifting:\t%s\n", color.YellowString("%d", s.InsufficientSifting))
	fmt.Fprintf(tw, "undefined rates:\t%d\n", s.UndefinedRates)
	fmt.Fprintf(tw, "compromised rate:\t%.4f\n", s.CompromisedRate())
	fmt.Fprintf(tw, "qber mean:\t%.4f\n", s.MeanQBER)
	fmt.Fprintf(tw, "qber std dev:\t%.4f\n", s.StdDevQBER)
	fmt.Fprintf(tw, "qber median:\t%.4f\n", s.MedianQBER)
	fmt.Fprintf(tw, "mean sifted length:\t%.1f\n", s.MeanSifted)
	fmt.Fprintf(tw, "mean final length:\t%.1f\n", s.MeanFinal)
	if !math.IsNaN(detect) {
		fmt.Fprintf(tw, "expected detection rate:\t%.4f\n", detect)
	}
	tw.Flush()
}

func renderRecord(w io.Writer, rec outcomelog.Record) {
	qber := "undefined"
	if rec.ErrorRate != nil {
		qber = fmt.Sprintf("%.4f", *rec.ErrorRate)
	}
	fmt.Fprintf(w, "%v  %s  %s  eve=%t  qber=%s  final=%d\n",
		rec.RunID, rec.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		statusColor(rec.Status).Sprint(rec.Status), rec.HasEve, qber, rec.KeyLengthFinal)
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
