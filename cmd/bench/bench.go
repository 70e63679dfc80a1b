// bench.go runs a batch of BB84 simulations for each entry in the cartesian
// product of a collection of tuning parameters, e.g. key length and channel
// noise, and outputs a CSV of relevant statistics for each combination, e.g.
// the compromised rate and mean final key length.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"
	"github.com/qkdlab/bb84sim/bb84"
	"github.com/qkdlab/bb84sim/bb84/trials"
	flag "github.com/spf13/pflag"
)

var (
	keyLength = flag.IntSlice("keyLength", []int{1000}, "The number of qubits Alice sends per run.")
	noise     = flag.Float64Slice("noise", []float64{0}, "The probability the channel flips a qubit.")
	eve       = flag.BoolSlice("eve", []bool{false, true}, "Whether Eve intercepts every qubit.")
	threshold = flag.Float64Slice("threshold", []float64{bb84.DefaultThreshold}, "The QBER at or above which a key is rejected.")
	sampleCap = flag.IntSlice("sampleCap", []int{bb84.DefaultSampleCap}, "The most sifted bits disclosed per run.")
	nTrials   = flag.Int("trials", 1000, "The number of runs per parameterization.")
	seed      = flag.Int64("seed", 1234, "Seed for the first run of each batch.")
)

var (
	inputs  = []string{"keyLength", "noise", "eve", "threshold", "sampleCap"}
	columns = []string{"KeyLength", "Noise", "Eve", "Threshold", "SampleCap",
		"Trials", "Secure", "Compromised", "InsufficientSifting", "UndefinedRates",
		"CompromisedRate", "MeanQBER", "StdDevQBER", "MeanSifted", "MeanFinal",
		"DetectionRate"}
)

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	KeyLength int
	Noise     float64
	Eve       bool
	Threshold float64
	SampleCap int

	// Fields corresponding to experiment results
	Trials              int
	Secure              int
	Compromised         int
	InsufficientSifting int
	UndefinedRates      int
	CompromisedRate     float64
	MeanQBER            float64
	StdDevQBER          float64
	MeanSifted          float64
	MeanFinal           float64

	// DetectionRate is the analytic probability of rejecting a key whose
	// sifted error rate matches the observed mean.
	DetectionRate float64
}

func main() {
	flag.Parse()
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "bench"})
	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	var args [][]interface{}
	for _, inp := range inputs {
		vals, err := lookupInput(flag.CommandLine, inp)
		if err != nil {
			logger.Fatal("reading inputs", "err", err)
		}
		args = append(args, vals)
	}
	applyCartesian(func(args []interface{}) {
		exp := &Experiment{
			KeyLength: args[inpIndex("keyLength")].(int),
			Noise:     args[inpIndex("noise")].(float64),
			Eve:       args[inpIndex("eve")].(bool),
			Threshold: args[inpIndex("threshold")].(float64),
			SampleCap: args[inpIndex("sampleCap")].(int),
		}
		if err := bench(exp); err != nil {
			logger.Error("benching", "experiment", exp, "err", err)
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			logger.Fatal("BUG: could not fill in line template", "err", err)
		}
	}, args)
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func bench(exp *Experiment) error {
	s, err := trials.Run(context.Background(), trials.Config{
		KeyLength: exp.KeyLength,
		HasEve:    exp.Eve,
		Trials:    *nTrials,
		Seed:      *seed,
		Opts: bb84.Opts{
			Threshold: exp.Threshold,
			SampleCap: exp.SampleCap,
			Noise:     exp.Noise,
		},
	})
	if err != nil {
		return err
	}
	exp.Trials = s.Trials
	exp.Secure = s.Secure
	exp.Compromised = s.Compromised
	exp.InsufficientSifting = s.InsufficientSifting
	exp.UndefinedRates = s.UndefinedRates
	exp.CompromisedRate = s.CompromisedRate()
	exp.MeanQBER = s.MeanQBER
	exp.StdDevQBER = s.StdDevQBER
	exp.MeanSifted = s.MeanSifted
	exp.MeanFinal = s.MeanFinal

	k := bb84.SampleSize(int(s.MeanSifted), bb84.DefaultSampleProportion, exp.SampleCap)
	if p, err := trials.DetectionProbability(k, s.MeanQBER, exp.Threshold); err == nil {
		exp.DetectionRate = p
	}
	return nil
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func lookupInput(fs *flag.FlagSet, name string) ([]interface{}, error) {
	var r []interface{}
	if v, err := fs.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := fs.GetFloat64Slice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := fs.GetBoolSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else {
		return nil, fmt.Errorf("unknown type for input %s", name)
	}
	if len(r) == 0 {
		return nil, fmt.Errorf("input %s has no values", name)
	}
	return r, nil
}

func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
