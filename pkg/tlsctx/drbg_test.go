package tlsctx

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constReader yields an endless stream of one byte value.
type constReader byte

func (c constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(c)
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestEntropyGather(t *testing.T) {
	e := NewEntropy(constReader(1), constReader(2))
	a, err := e.Gather(100)
	require.NoError(t, err)
	assert.Len(t, a, 100)

	b, err := NewEntropy(constReader(1), constReader(2)).Gather(100)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := NewEntropy(constReader(2), constReader(1)).Gather(100)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	// Blocks differ even when sources repeat.
	assert.NotEqual(t, a[:64], a[64:100])

	e.Free()
	_, err = e.Gather(1)
	assert.ErrorIs(t, err, ErrEntropyFreed)
	e.Free()
}

func TestEntropyDefaultsToOS(t *testing.T) {
	e := NewEntropy(nil)
	out, err := e.Gather(32)
	require.NoError(t, err)
	assert.NotEqual(t, make([]byte, 32), out)
}

func TestEntropySourceFailure(t *testing.T) {
	_, err := NewEntropy(constReader(1), failingReader{}).Gather(8)
	assert.ErrorContains(t, err, "entropy source 1")
}

func TestDRBGDeterministic(t *testing.T) {
	read := func(pers string) []byte {
		d, err := NewDRBG(NewEntropy(constReader(7)), []byte(pers), 0)
		require.NoError(t, err)
		out := make([]byte, 256)
		_, err = io.ReadFull(d, out)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, read("client"), read("client"))
	assert.NotEqual(t, read("client"), read("other"))
}

func TestDRBGReseeds(t *testing.T) {
	d, err := NewDRBG(NewEntropy(constReader(3)), nil, 64)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Reseeds())

	out := make([]byte, 200)
	n, err := d.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
	assert.Equal(t, 4, d.Reseeds())

	// The same seed restarts the same keystream after each reseed.
	assert.Equal(t, out[:64], out[64:128])
}

func TestDRBGFree(t *testing.T) {
	d, err := NewDRBG(NewEntropy(), []byte("x"), 0)
	require.NoError(t, err)

	d.Free()
	d.Free()
	_, err = d.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrDRBGFreed)
}

func TestDRBGSeedFailure(t *testing.T) {
	_, err := NewDRBG(NewEntropy(failingReader{}), nil, 0)
	assert.ErrorContains(t, err, "seed")
}
