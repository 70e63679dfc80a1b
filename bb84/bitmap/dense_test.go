package bitmap

import (
	"bytes"
	"math/rand"
	"reflect"
	"testing"
)

func TestDenseGet(t *testing.T) {
	tcs := []struct {
		name  string
		data  Dense
		edata []bool
	}{
		{"implicit zeros", NewDense(nil, 3), []bool{false, false, false}},
		{"aligned", mustDense(t, "10101010"), []bool{true, false, true, false, true, false, true, false}},
		{"multibyte",
			mustDense(t, "00000000 101"),
			[]bool{false, false, false, false, false, false, false, false, true, false, true}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var d []bool
			for i := 0; i < tc.data.Size(); i++ {
				d = append(d, tc.data.Get(i))
			}
			if !reflect.DeepEqual(d, tc.edata) {
				t.Errorf("t.Get() == %v, want %v", d, tc.edata)
			}
		})
	}
}

func TestDenseSetFlip(t *testing.T) {
	d := NewDense(nil, 10)
	d.Set(9, true)
	d.Set(0, true)
	d.Flip(3)
	d.Flip(0)
	if want := mustDense(t, "00010000 01"); !Equal(d, want) {
		t.Errorf("got %v, want %v", d, want)
	}
	d.Set(9, false)
	if CountOnes(d) != 1 {
		t.Errorf("Set(9, false) left %v", d)
	}
}

func TestDenseSwap(t *testing.T) {
	tcs := []struct {
		name string
		d    Dense
		i, j int
		eout Dense
	}{
		{"zeros", mustDense(t, "00"), 0, 1, mustDense(t, "00")},
		{"ones", mustDense(t, "11"), 0, 1, mustDense(t, "11")},
		{"one zero", mustDense(t, "10"), 0, 1, mustDense(t, "01")},
		{"zero one", mustDense(t, "01"), 0, 1, mustDense(t, "10")},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			tc.d.swap(tc.i, tc.j)
			if tc.d.len != tc.eout.len {
				t.Errorf("got bitmap of len %d, want %d", tc.d.len, tc.eout.len)
			}
			if !bytes.Equal(tc.d.bits, tc.eout.bits) {
				t.Errorf("got %v, want %v", tc.d.bits, tc.eout.bits)
			}
		})
	}
}

func TestShufflePreservesWeight(t *testing.T) {
	d := mustDense(t, "11100000 00110011 1")
	d.Shuffle(rand.New(rand.NewSource(7)))
	if d.Size() != 17 {
		t.Errorf("Shuffle changed size to %d", d.Size())
	}
	if CountOnes(d) != 8 {
		t.Errorf("Shuffle changed weight to %d, want 8", CountOnes(d))
	}
}

func TestNewDenseMasksTail(t *testing.T) {
	d := NewDense([]byte{0xFF, 0xFF}, 9)
	if got := d.Data(); !bytes.Equal(got, []byte{0xFF, 0x01}) {
		t.Errorf("NewDense data == %08b, want [11111111 00000001]", got)
	}
}
