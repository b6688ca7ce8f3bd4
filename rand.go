package khf

import (
	"crypto/rand"
	"io"
)

// randomKey draws a fresh KeySize-byte key from rng. The CSPRNG is treated
// as an external capability that is infallible in practice; none of the
// forest's public operations return an error, so a read failure here
// indicates the supplied io.Reader is not a working CSPRNG at all, and
// panics rather than propagating a return value no caller is set up to
// check.
func randomKey(rng io.Reader) Key {
	var k Key
	if _, err := io.ReadFull(rng, k[:]); err != nil {
		panic("khf: CSPRNG capability failed: " + err.Error())
	}
	return k
}

// DefaultRand is the default CSPRNG capability: the operating system's
// cryptographically secure random source.
func DefaultRand() io.Reader {
	return rand.Reader
}
