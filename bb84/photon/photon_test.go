package photon

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
)

// A fixedRand returns the same bit forever, and counts how often it was asked.
type fixedRand struct {
	bit   bool
	f     float64
	draws int
}

func (f *fixedRand) Bit() bool {
	f.draws++
	return f.bit
}

func (f *fixedRand) Float64() float64 {
	return f.f
}

type mathRand struct{ r *rand.Rand }

func (m mathRand) Bit() bool        { return m.r.Intn(2) == 1 }
func (m mathRand) Float64() float64 { return m.r.Float64() }

func TestMeasure(t *testing.T) {
	tcs := []struct {
		name   string
		bit    bool
		prep   Basis
		meas   Basis
		coin   bool
		eout   bool
		eDraws int
	}{
		{"match zero", false, Rectilinear, Rectilinear, true, false, 0},
		{"match one", true, Diagonal, Diagonal, false, true, 0},
		{"mismatch uses coin", false, Rectilinear, Diagonal, true, true, 1},
		{"mismatch ignores bit", true, Diagonal, Rectilinear, false, false, 1},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			r := &fixedRand{bit: tc.coin}
			out, err := Measure(Encode(tc.bit, tc.prep), tc.meas, r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tc.eout {
				t.Errorf("Measure == %v, want %v", out, tc.eout)
			}
			if r.draws != tc.eDraws {
				t.Errorf("Measure drew %d random bits, want %d", r.draws, tc.eDraws)
			}
		})
	}
}

func TestMeasureTwice(t *testing.T) {
	q := Encode(true, Rectilinear)
	r := &fixedRand{}
	if _, err := Measure(q, Rectilinear, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Measure(q, Rectilinear, r); !errors.Is(err, ErrConsumed) {
		t.Errorf("second Measure returned %v, want ErrConsumed", err)
	}
}

func TestIntercept(t *testing.T) {
	// Eve's coin selects the diagonal basis, so a rectilinear qubit yields her
	// a random bit (also the coin) and she forwards a diagonal qubit.
	r := &fixedRand{bit: true}
	q := Encode(false, Rectilinear)
	fwd, eb, ebit, err := Intercept(q, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eb != Diagonal || !ebit {
		t.Errorf("Eve observed (%v, %v), want (x, true)", eb, ebit)
	}
	if fwd.Basis() != Diagonal {
		t.Errorf("forwarded qubit basis == %v, want x", fwd.Basis())
	}
	if _, err := Measure(q, Rectilinear, r); !errors.Is(err, ErrConsumed) {
		t.Errorf("intercepted qubit was still measurable")
	}
}

func TestTransmitNoEveMatchingBasesAgree(t *testing.T) {
	r := mathRand{rand.New(rand.NewSource(3))}
	c := Channel{Rand: r}
	for i := 0; i < 500; i++ {
		bit := r.Bit()
		basis := BasisOf(r.Bit())
		tr, err := c.Transmit(i, bit, basis, basis)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.BobBit != bit {
			t.Fatalf("position %d: Bob read %v, Alice sent %v", i, tr.BobBit, bit)
		}
		if tr.Intercepted {
			t.Fatalf("position %d intercepted without Eve", i)
		}
	}
}

func TestTransmitNoiseFlips(t *testing.T) {
	c := Channel{Noise: 1, Rand: &fixedRand{f: 0.5}}
	tr, err := c.Transmit(0, true, Diagonal, Diagonal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.BobBit {
		t.Errorf("noise 1 did not flip the bit")
	}
}

func TestTransmitAll(t *testing.T) {
	r := mathRand{rand.New(rand.NewSource(11))}
	bits, _ := bitmap.FromString("0110 1001 11")
	aBases, _ := bitmap.FromString("0011 0101 01")
	bBases, _ := bitmap.FromString("0101 0110 01")
	bob, recs, err := Channel{Eve: true, Rand: r}.TransmitAll(bits, aBases, bBases)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bob.Size() != 10 || len(recs) != 10 {
		t.Fatalf("got %d bits and %d records, want 10 of each", bob.Size(), len(recs))
	}
	for i, rec := range recs {
		if rec.Index != i || !rec.Intercepted {
			t.Errorf("record %d malformed: %+v", i, rec)
		}
		if rec.BobBit != bob.Get(i) {
			t.Errorf("record %d disagrees with Bob's bitmap", i)
		}
		if rec.EveBasis == rec.BobBasis && rec.BobBit != rec.EveBit {
			t.Errorf("record %d: Bob measured Eve's basis but read %v, Eve sent %v", i, rec.BobBit, rec.EveBit)
		}
	}

}

func TestTransmitAllLengthMismatch(t *testing.T) {
	r := mathRand{rand.New(rand.NewSource(12))}
	tcs := []struct {
		name                 string
		bits, aBases, bBases int
	}{
		{"short alice bases", 4, 3, 4},
		{"short bob bases", 4, 4, 3},
		{"short bits", 2, 4, 4},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Channel{Rand: r}.TransmitAll(
				bitmap.NewDense(nil, tc.bits), bitmap.NewDense(nil, tc.aBases), bitmap.NewDense(nil, tc.bBases))
			if !errors.Is(err, ErrLengthMismatch) {
				t.Errorf("TransmitAll(%d, %d, %d) returned %v, want ErrLengthMismatch", tc.bits, tc.aBases, tc.bBases, err)
			}
		})
	}
}
