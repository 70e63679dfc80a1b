// Package outcomelog writes and reads an authenticated log of BB84 simulation
// outcomes.
//
// Each entry is framed as: proto-length | proto | mac. The proto is a
// google.protobuf.Struct. MACs are computed by applying a secret Toeplitz
// matrix to create a hash, then applying a one-time pad to the hash, both read
// from a secret shared by writer and reader. See also,
// https://arxiv.org/abs/1603.08387.
package outcomelog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/qkdlab/bb84sim/bb84/bitmap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	// DefaultEpsilon is the probability we are willing to accept that a forged
	// record passes verification.
	DefaultEpsilon = 1e-12

	// MaxRecordBytes bounds the marshalled size of a single record.
	MaxRecordBytes = 4 << 10
)

var (
	ErrBadMAC          = errors.New("record MAC mismatch")
	ErrRecordTooLarge  = errors.New("record too large")
	ErrSecretExhausted = errors.New("shared secret exhausted")
)

var tagBits = int(math.Ceil(math.Log2(1 / DefaultEpsilon)))

// A framer reads and writes framed, MAC-ed protocol buffers.
type framer struct {
	secret io.Reader
	t      toeplitz
}

func newFramer(secret io.Reader) (*framer, error) {
	diags := make([]byte, bitmap.BytesFor(tagBits+MaxRecordBytes*8-1))
	if _, err := io.ReadFull(secret, diags); err != nil {
		return nil, fmt.Errorf("%w: reading hash diagonals: %v", ErrSecretExhausted, err)
	}
	return &framer{
		secret: secret,
		t: toeplitz{
			diags: bitmap.NewDense(diags, -1),
			rows:  tagBits,
		},
	}, nil
}

func (f *framer) write(w io.Writer, m proto.Message) error {
	marshalled, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	if len(marshalled) > MaxRecordBytes {
		return fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(marshalled))
	}
	mac, err := f.buildMAC(marshalled)
	if err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(marshalled))); err != nil {
		return err
	}
	if _, err := w.Write(marshalled); err != nil {
		return err
	}
	if _, err := w.Write(mac); err != nil {
		return err
	}
	return nil
}

// read returns io.EOF if r is exhausted at a frame boundary.
func (f *framer) read(r io.Reader, m proto.Message) error {
	var mLen int32
	if err := binary.Read(r, binary.LittleEndian, &mLen); err != nil {
		return err
	}
	if mLen < 0 || int(mLen) > MaxRecordBytes {
		return fmt.Errorf("%w: frame claims %d bytes", ErrRecordTooLarge, mLen)
	}
	marshalled := make([]byte, mLen)
	if _, err := io.ReadFull(r, marshalled); err != nil {
		return fmt.Errorf("reading frame body: %w", err)
	}
	mac := make([]byte, bitmap.BytesFor(tagBits))
	if _, err := io.ReadFull(r, mac); err != nil {
		return fmt.Errorf("reading frame mac: %w", err)
	}
	emac, err := f.buildMAC(marshalled)
	if err != nil {
		return err
	}
	if !bytes.Equal(mac, emac) {
		return ErrBadMAC
	}
	return proto.Unmarshal(marshalled, m)
}

func (f *framer) buildMAC(msg []byte) ([]byte, error) {
	hash, err := f.t.hash(bitmap.NewDense(msg, -1))
	if err != nil {
		return nil, err
	}
	otp := make([]byte, hash.SizeBytes())
	if _, err := io.ReadFull(f.secret, otp); err != nil {
		return nil, fmt.Errorf("%w: reading one-time pad: %v", ErrSecretExhausted, err)
	}
	return bitmap.XOr(hash, bitmap.NewDense(otp, hash.Size())).Data(), nil
}

// A Writer appends authenticated records to an underlying stream.
type Writer struct {
	w io.Writer
	f *framer
}

// NewWriter returns a Writer that authenticates with key material drawn from
// secret. The reader of the log must be given an identical secret.
func NewWriter(w io.Writer, secret io.Reader) (*Writer, error) {
	f, err := newFramer(secret)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, f: f}, nil
}

// Write appends rec to the log.
func (w *Writer) Write(rec Record) error {
	s, err := rec.ToProto()
	if err != nil {
		return fmt.Errorf("encoding record %v: %w", rec.RunID, err)
	}
	return w.f.write(w.w, s)
}

// A Reader verifies and decodes records written by a Writer.
type Reader struct {
	r io.Reader
	f *framer
}

// NewReader returns a Reader that verifies with key material drawn from secret.
func NewReader(r io.Reader, secret io.Reader) (*Reader, error) {
	f, err := newFramer(secret)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, f: f}, nil
}

// Read returns the next record, or io.EOF once the log is exhausted. A record
// failing verification yields ErrBadMAC; the log cannot be read past it.
func (r *Reader) Read() (Record, error) {
	s := new(structpb.Struct)
	if err := r.f.read(r.r, s); err != nil {
		return Record{}, err
	}
	return RecordFromProto(s)
}
