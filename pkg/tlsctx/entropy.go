package tlsctx

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// entropyBlockSize is how much is read from every source per output block.
const entropyBlockSize = 32

// ErrEntropyFreed is returned when gathering from a released source.
var ErrEntropyFreed = errors.New("tlsctx: entropy source released")

// Entropy accumulates several sources into uniformly mixed output. Each
// output block is SHA-512 over a block counter and a read from every source.
type Entropy struct {
	sources []io.Reader
}

// NewEntropy creates an entropy accumulator. Without sources it uses the
// operating system generator.
func NewEntropy(sources ...io.Reader) *Entropy {
	var srcs []io.Reader
	for _, s := range sources {
		if s != nil {
			srcs = append(srcs, s)
		}
	}
	if len(srcs) == 0 {
		srcs = []io.Reader{rand.Reader}
	}
	return &Entropy{sources: srcs}
}

// Gather returns n bytes of mixed entropy.
func (e *Entropy) Gather(n int) ([]byte, error) {
	if e == nil || e.sources == nil {
		return nil, ErrEntropyFreed
	}

	out := make([]byte, 0, n+sha512.Size)
	var block [entropyBlockSize]byte
	var counter [4]byte
	for i := uint32(0); len(out) < n; i++ {
		h := sha512.New()
		binary.BigEndian.PutUint32(counter[:], i)
		h.Write(counter[:])
		for idx, src := range e.sources {
			if _, err := io.ReadFull(src, block[:]); err != nil {
				return nil, fmt.Errorf("entropy source %d: %w", idx, err)
			}
			h.Write(block[:])
		}
		out = h.Sum(out)
	}
	clear(block[:])
	return out[:n], nil
}

// Free releases the sources. It is safe to call more than once.
func (e *Entropy) Free() {
	if e != nil {
		e.sources = nil
	}
}
