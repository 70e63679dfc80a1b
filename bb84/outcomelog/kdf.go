package outcomelog

import (
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// MinSeedBytes is the shortest seed DeriveSecret accepts.
const MinSeedBytes = 32

// DeriveSecret expands a short shared seed into a stream suitable for NewWriter
// and NewReader. Logs authenticated this way are only computationally secure,
// and the stream is exhausted after roughly eight hundred records.
func DeriveSecret(seed []byte, info string) (io.Reader, error) {
	if len(seed) < MinSeedBytes {
		return nil, fmt.Errorf("seed of %d bytes is shorter than %d", len(seed), MinSeedBytes)
	}
	return hkdf.New(sha3.New256, seed, nil, []byte(info)), nil
}
