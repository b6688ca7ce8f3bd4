package khf

import (
	"hash"

	"golang.org/x/crypto/sha3"
)

// Hasher is the external cryptographic hash capability the forest folds its
// derivation chains through: an abstract capability producing N bytes from
// a byte stream, via a cryptographic one-way compression. New must return a
// fresh, zeroed hash.Hash on every call — the forest never reuses or resets
// an instance.
type Hasher interface {
	New() hash.Hash
}

// sha3Hasher is the default Hasher, producing 32-byte SHA3-256 digests.
type sha3Hasher struct{}

// NewSHA3Hasher returns the default Hasher: SHA3-256, matching KeySize.
func NewSHA3Hasher() Hasher {
	return sha3Hasher{}
}

func (sha3Hasher) New() hash.Hash {
	return sha3.New256()
}
