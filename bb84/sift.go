package bb84

import (
	"fmt"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
)

// A SiftedKey holds Alice's and Bob's bits at the positions where their bases
// agreed, in transmission order.
type SiftedKey struct {
	Alice bitmap.Dense
	Bob   bitmap.Dense

	// Positions holds the transmission index each sifted bit came from.
	Positions []int
}

// Size returns the number of sifted positions.
func (k SiftedKey) Size() int {
	return k.Alice.Size()
}

// Sift discards every position where Alice and Bob measured in different bases.
// All four sequences must have the same length.
func Sift(aliceBits, aliceBases, bobBases, bobBits bitmap.Dense) (SiftedKey, error) {
	n := aliceBits.Size()
	if aliceBases.Size() != n || bobBases.Size() != n || bobBits.Size() != n {
		return SiftedKey{}, fmt.Errorf("%w: sifting bits=%d aliceBases=%d bobBases=%d bobBits=%d",
			ErrLengthMismatch, n, aliceBases.Size(), bobBases.Size(), bobBits.Size())
	}
	mask := bitmap.XNor(aliceBases, bobBases)
	positions := make([]int, 0, bitmap.CountOnes(mask))
	for i := 0; i < n; i++ {
		if mask.Get(i) {
			positions = append(positions, i)
		}
	}
	return SiftedKey{
		Alice:     bitmap.Select(aliceBits, mask),
		Bob:       bitmap.Select(bobBits, mask),
		Positions: positions,
	}, nil
}
