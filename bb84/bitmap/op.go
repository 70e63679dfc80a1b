package bitmap

import "fmt"

// And returns the bitwise AND of two bitmaps. The result is as long as the
// shorter operand.
func And(a, b Dense) Dense {
	short := a
	if b.len < a.len {
		short = b
	}
	r := Dense{
		bits: make([]byte, short.SizeBytes()),
		len:  short.len,
	}
	for i := range r.bits {
		r.bits[i] = a.bits[i] & b.bits[i]
	}
	return r
}

// XOr returns the bitwise XOR of two bitmaps. The shorter operand is treated as
// if padded with trailing zeros.
func XOr(a, b Dense) Dense {
	short, long := a, b
	if b.len < a.len {
		short, long = b, a
	}
	r := long.Clone()
	for i := range short.bits {
		r.bits[i] ^= short.bits[i]
	}
	return r
}

// XNor returns the bitwise equality of two bitmaps. The shorter operand is
// treated as if padded with trailing zeros.
func XNor(a, b Dense) Dense {
	return Not(XOr(a, b))
}

// Not returns the bitwise negation of a bitmap.
func Not(d Dense) Dense {
	r := Dense{
		bits: make([]byte, len(d.bits)),
		len:  d.len,
	}
	for i, b := range d.bits {
		r.bits[i] = ^b
	}
	r.clearTail()
	return r
}

// Slice copies bits [start, end) of d into a new bitmap.
func Slice(d Dense, start, end int) (Dense, error) {
	if start < 0 {
		return Dense{}, fmt.Errorf("slicing bitmap with negative start: %d", start)
	}
	if end < start {
		return Dense{}, fmt.Errorf("slicing bitmap to negative length: %d", end-start)
	}
	if end > d.len {
		return Dense{}, fmt.Errorf("slicing bitmap of len %d up to %d", d.len, end)
	}
	r := Dense{bits: make([]byte, 0, BytesFor(end-start))}
	for i := start; i < end; i++ {
		r.AppendBit(d.Get(i))
	}
	return r, nil
}

// Pad returns a copy of d extended with trailing zeros to n bits. If d is
// already at least n bits long, an unmodified copy is returned.
func Pad(d Dense, n int) Dense {
	if n <= d.len {
		return d.Clone()
	}
	return NewDense(d.bits, n)
}
