package outcomelog

import (
	"fmt"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
)

// A toeplitz is a binary Toeplitz matrix with a fixed number of rows, used as
// a universal hash over record bytes. Its column count follows the message
// being hashed, so one set of diagonals serves every record up to
// MaxRecordBytes.
type toeplitz struct {
	// diags holds the diagonal constants, bottom left first. Entry (i, j) of
	// the matrix is diags[rows-1-i+j].
	diags bitmap.Dense
	rows  int
}

// hash returns T·msg over F_2.
func (t toeplitz) hash(msg bitmap.Dense) (bitmap.Dense, error) {
	n := msg.Size()
	if need := t.rows + n - 1; t.diags.Size() < need {
		return bitmap.Empty(), fmt.Errorf("%w: hashing %d bits needs %d diagonals, have %d",
			ErrRecordTooLarge, n, need, t.diags.Size())
	}
	tag := bitmap.NewDense(nil, t.rows)
	for i := 0; i < t.rows; i++ {
		off := t.rows - 1 - i
		row, err := bitmap.Slice(t.diags, off, off+n)
		if err != nil {
			return bitmap.Empty(), err
		}
		tag.Set(i, bitmap.Parity(bitmap.And(row, msg)))
	}
	return tag, nil
}
