package tlsctx

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

// DRBG defaults.
const (
	// drbgSeedLen is the entropy consumed per (re)seed.
	drbgSeedLen = 48

	// DefaultReseedInterval is the number of bytes generated between
	// reseeds.
	DefaultReseedInterval = 1 << 20
)

// ErrDRBGFreed is returned when reading from a released generator.
var ErrDRBGFreed = errors.New("tlsctx: random generator released")

// DRBG is a deterministic random bit generator. Output is a ChaCha20
// keystream whose key and nonce are derived with HKDF-SHA256 from an entropy
// seed and a personalization string. It reseeds from its entropy source
// every reseed interval.
type DRBG struct {
	mu       sync.Mutex
	entropy  *Entropy
	pers     []byte
	interval int

	stream    *chacha20.Cipher
	generated int
	reseeds   int
}

// NewDRBG creates a generator and seeds it from entropy.
func NewDRBG(entropy *Entropy, personalization []byte, reseedInterval int) (*DRBG, error) {
	if reseedInterval <= 0 {
		reseedInterval = DefaultReseedInterval
	}
	d := &DRBG{
		entropy:  entropy,
		pers:     append([]byte(nil), personalization...),
		interval: reseedInterval,
	}
	if err := d.reseed(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DRBG) reseed() error {
	seed, err := d.entropy.Gather(drbgSeedLen)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer clear(seed)

	var material [chacha20.KeySize + chacha20.NonceSize]byte
	defer clear(material[:])
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, d.pers), material[:]); err != nil {
		return fmt.Errorf("derive key: %w", err)
	}

	stream, err := chacha20.NewUnauthenticatedCipher(material[:chacha20.KeySize], material[chacha20.KeySize:])
	if err != nil {
		return fmt.Errorf("keystream: %w", err)
	}
	d.stream = stream
	d.generated = 0
	d.reseeds++
	return nil
}

// Read fills p with random bytes. It implements io.Reader for tls.Config.Rand.
func (d *DRBG) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return 0, ErrDRBGFreed
	}

	for off := 0; off < len(p); {
		if d.generated >= d.interval {
			if err := d.reseed(); err != nil {
				return off, err
			}
		}
		chunk := min(len(p)-off, d.interval-d.generated)
		out := p[off : off+chunk]
		clear(out)
		d.stream.XORKeyStream(out, out)
		d.generated += chunk
		off += chunk
	}
	return len(p), nil
}

// Reseeds returns how many times the generator has been seeded.
func (d *DRBG) Reseeds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reseeds
}

// Free releases the keystream. It is safe to call more than once.
func (d *DRBG) Free() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stream = nil
	d.entropy = nil
	clear(d.pers)
}
