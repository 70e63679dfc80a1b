package bitmap

import "math/rand"

// A Dense is a bitmap where every bit is explicitly represented. Bits past len
// in the final byte are always zero.
type Dense struct {
	bits []byte
	len  int
}

// NewDense returns a new dense bitmap whose contents are a copy of data, and
// whose length is bitLen. If bitLen is longer than data, then trailing zeros
// are added. If bitLen is negative, then it is inferred from data.
func NewDense(data []byte, bitLen int) Dense {
	if bitLen < 0 {
		bitLen = len(data) * byteSize
	}
	r := Dense{
		bits: make([]byte, BytesFor(bitLen)),
		len:  bitLen,
	}
	copy(r.bits, data)
	r.clearTail()
	return r
}

// Get returns the i-th bit in this bitmap. Bits past the end read as zero.
func (d Dense) Get(i int) bool {
	if i < 0 || i >= d.len {
		return false
	}
	return d.bits[i/byteSize]&(1<<(i%byteSize)) != 0
}

// Set assigns the i-th bit. It panics if i is out of range.
func (d *Dense) Set(i int, bit bool) {
	if i < 0 || i >= d.len {
		panic("bitmap: index out of range")
	}
	if bit {
		d.bits[i/byteSize] |= 1 << (i % byteSize)
	} else {
		d.bits[i/byteSize] &^= 1 << (i % byteSize)
	}
}

// Flip inverts the i-th bit. It panics if i is out of range.
func (d *Dense) Flip(i int) {
	if i < 0 || i >= d.len {
		panic("bitmap: index out of range")
	}
	d.bits[i/byteSize] ^= 1 << (i % byteSize)
}

// Size returns the number of bits in this bitmap.
func (d Dense) Size() int {
	return d.len
}

// SizeBytes returns the number of bytes needed to hold this bitmap.
func (d Dense) SizeBytes() int {
	return BytesFor(d.len)
}

// Data returns a copy of the bytes underlying this bitmap.
func (d Dense) Data() []byte {
	r := make([]byte, d.SizeBytes())
	copy(r, d.bits)
	return r
}

// Clone returns a deep copy of d.
func (d Dense) Clone() Dense {
	return Dense{bits: d.Data(), len: d.len}
}

// AppendBit adds a single bit to the end of d.
func (d *Dense) AppendBit(bit bool) {
	i, pos := d.len/byteSize, d.len%byteSize
	d.len++
	if pos == 0 {
		d.bits = append(d.bits[:i], 0)
	}
	if bit {
		d.bits[i] |= 1 << pos
	}
}

// Shuffle randomly permutes the contents of d in place, using r as a source of
// randomness.
func (d *Dense) Shuffle(r *rand.Rand) {
	r.Shuffle(d.len, d.swap)
}

func (d *Dense) swap(i, j int) {
	if d.Get(i) == d.Get(j) {
		return
	}
	d.Flip(i)
	d.Flip(j)
}

func (d *Dense) clearTail() {
	if off := d.len % byteSize; off != 0 {
		d.bits[len(d.bits)-1] &= byte(1<<off) - 1
	}
}
