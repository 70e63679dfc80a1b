package bb84

import (
	"fmt"
	"math/bits"
	"math/rand"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
)

// A Reconciliation reports the result of running Winnow error correction over
// the undisclosed part of a secure sifted key.
type Reconciliation struct {
	AliceKey bitmap.Dense
	BobKey   bitmap.Dense

	// Disclosed counts the parity bits made public, each of which costs one
	// key bit to keep the remainder private.
	Disclosed int
	// Corrected counts the bits Bob flipped.
	Corrected int
	// Residual counts the positions on which the reconciled keys still
	// disagree.
	Residual int
}

// A winnower reconciles Alice's and Bob's keys via the Winnow algorithm, as
// described in https://arxiv.org/abs/quant-ph/0203096. Both keys are local to
// the simulation, so the parity exchange happens in memory.
type winnower struct {
	rand  RandomSource
	iters []int
}

func (w winnower) Reconcile(alice, bob bitmap.Dense) (Reconciliation, error) {
	if alice.Size() != bob.Size() {
		return Reconciliation{}, fmt.Errorf(
			"%w: reconciling bitstrings of different lengths: %d != %d", ErrLengthMismatch, alice.Size(), bob.Size())
	}
	res := Reconciliation{AliceKey: alice.Clone(), BobKey: bob.Clone()}
	for _, hBits := range w.iters {
		if err := w.winnow(&res, hBits); err != nil {
			return Reconciliation{}, err
		}
	}
	res.Residual = bitmap.CountOnes(bitmap.XOr(res.AliceKey, res.BobKey))
	return res, nil
}

func (w winnower) winnow(res *Reconciliation, hBits int) error {
	// Both parties permute with the same seed to de-correlate error positions.
	seed := w.rand.Int63()
	res.AliceKey.Shuffle(rand.New(rand.NewSource(seed)))
	res.BobKey.Shuffle(rand.New(rand.NewSource(seed)))

	n := res.AliceKey.Size()
	bSize := 1 << hBits
	padded := (n + bSize - 1) / bSize * bSize
	x := bitmap.Pad(res.AliceKey, padded)
	y := bitmap.Pad(res.BobKey, padded)
	genuine := bitmap.Pad(bitmap.Not(bitmap.NewDense(nil, n)), padded)

	aSyn, err := w.getSyndromes(x, hBits)
	if err != nil {
		return err
	}
	bSyn, err := w.getSyndromes(y, hBits)
	if err != nil {
		return err
	}
	todo := bitmap.NewDense(nil, len(aSyn))
	var synSums []bitmap.Dense
	for i := range aSyn {
		if aSyn[i].Get(hBits) == bSyn[i].Get(hBits) {
			continue
		}
		todo.Set(i, true)
		synSums = append(synSums, bitmap.XOr(aSyn[i], bSyn[i]))
	}
	res.Corrected += w.applySyndromes(&y, synSums, todo, hBits)

	keep := w.keepMask(todo, hBits)
	res.Disclosed += padded - bitmap.CountOnes(keep)
	realKept := bitmap.Select(genuine, keep)
	res.AliceKey = bitmap.Select(bitmap.Select(x, keep), realKept)
	res.BobKey = bitmap.Select(bitmap.Select(y, keep), realKept)
	return nil
}

// applySyndromes flips, in each block marked in todo, the bit addressed by the
// corresponding syndrome difference, and returns the number of flips.
func (w winnower) applySyndromes(x *bitmap.Dense, synSums []bitmap.Dense, todo bitmap.Dense, hBits int) int {
	n := 1 << hBits
	flips := 0
	for i, k := 0, -1; i < todo.Size(); i++ {
		if !todo.Get(i) {
			continue
		}
		k++
		syn := synSums[k]
		pos := 0
		for j := 0; j < hBits; j++ {
			if syn.Get(j) {
				pos |= 1 << j
			}
		}
		pos-- // cardinal/ordinal correction
		if pos < 0 {
			pos = n - 1 // total parity flip
		}
		x.Flip(i*n + pos)
		flips++
	}
	return flips
}

// keepMask marks the bits that survive privacy maintenance: blocks whose total
// parity was disclosed lose one bit, and blocks whose full syndrome was
// disclosed lose every parity-check position.
func (w winnower) keepMask(todo bitmap.Dense, hBits int) bitmap.Dense {
	keep := bitmap.Empty()
	n := 1 << hBits
	for i := 0; i < todo.Size(); i++ {
		if !todo.Get(i) {
			for j := 0; j < n-1; j++ {
				keep.AppendBit(true)
			}
			keep.AppendBit(false)
			continue
		}
		for j := 0; j < n; j++ {
			keep.AppendBit(bits.OnesCount(uint(j+1)) != 1)
		}
	}
	return keep
}

func (w winnower) getSyndromes(x bitmap.Dense, hBits int) ([]bitmap.Dense, error) {
	var r []bitmap.Dense
	bSize := 1 << hBits
	for i := 0; i < x.Size(); i += bSize {
		block, err := bitmap.Slice(x, i, i+bSize)
		if err != nil {
			return nil, err
		}
		syndrome, err := w.secded(block, hBits)
		if err != nil {
			return nil, err
		}
		r = append(r, syndrome)
	}
	return r, nil
}

// secded computes the extended Hamming syndrome of block: hBits parity checks
// followed by the block's total parity.
func (w winnower) secded(block bitmap.Dense, hBits int) (bitmap.Dense, error) {
	if block.Size() != 1<<hBits {
		return bitmap.Empty(), fmt.Errorf(
			"hamming SECDED with %d parity bits needs block of %d, got %d", hBits, 1<<hBits, block.Size())
	}
	r := bitmap.Empty()

	// The p-th parity bit checks bits in alternating runs of 2^p, starting at
	// position 2^p - 1.
	for p := 0; p < hBits; p++ {
		stride := 1 << p
		parity := false
		for i := stride - 1; i < block.Size(); i += 2 * stride {
			for j := i; j < i+stride && j < block.Size(); j++ {
				parity = block.Get(j) != parity
			}
		}
		r.AppendBit(parity)
	}
	r.AppendBit(bitmap.Parity(block))
	return r, nil
}
