package bb84

import (
	"errors"
	"sort"
	"testing"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
)

func TestSourceBits(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 1000} {
		d, err := NewSource(1).Bits(n)
		if err != nil {
			t.Fatalf("Bits(%d): unexpected error: %v", n, err)
		}
		if d.Size() != n {
			t.Errorf("Bits(%d) returned %d bits", n, d.Size())
		}
	}
	if _, err := NewSource(1).Bits(-1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Bits(-1) returned %v, want ErrInvalidArgument", err)
	}
}

func TestSourceReproducible(t *testing.T) {
	a, _ := NewSource(99).Bits(256)
	b, _ := NewSource(99).Bits(256)
	if !bitmap.Equal(a, b) {
		t.Errorf("same seed produced different bits")
	}
}

func TestSourceUniformity(t *testing.T) {
	tcs := []struct {
		name string
		src  *Source
	}{
		{"seeded", NewSource(4)},
		{"crypto", NewCryptoSource()},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			d, err := tc.src.Bits(10000)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// 10 standard deviations either side of 5000.
			if ones := bitmap.CountOnes(d); ones < 4500 || ones > 5500 {
				t.Errorf("%d ones in 10000 bits", ones)
			}
			heads := 0
			for i := 0; i < 10000; i++ {
				if tc.src.Bit() {
					heads++
				}
			}
			if heads < 4500 || heads > 5500 {
				t.Errorf("%d heads in 10000 flips", heads)
			}
		})
	}
}

func TestSourceSample(t *testing.T) {
	src := NewSource(12)
	idxs, err := src.Sample(50, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idxs) != 20 || !sort.IntsAreSorted(idxs) {
		t.Fatalf("Sample == %v, want 20 ascending indices", idxs)
	}
	seen := map[int]bool{}
	for _, i := range idxs {
		if i < 0 || i >= 50 || seen[i] {
			t.Fatalf("Sample == %v: out of range or repeated", idxs)
		}
		seen[i] = true
	}
	if idxs, err := src.Sample(5, 0); err != nil || len(idxs) != 0 {
		t.Errorf("Sample(5, 0) == (%v, %v)", idxs, err)
	}
	if _, err := src.Sample(3, 4); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Sample(3, 4) returned %v, want ErrInvalidArgument", err)
	}
}
