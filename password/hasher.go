package password

import (
	"errors"
	"strings"
)

// Algorithm names a hashing scheme accepted by [New].
type Algorithm string

const (
	// AlgorithmSHA256 is the legacy single-pass salted SHA-256 scheme.
	AlgorithmSHA256 Algorithm = "sha256"
	// AlgorithmArgon2id is the memory-hard argon2id scheme.
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Hasher hashes and verifies passwords against a caller-supplied salt.
//
// Implementations are pure: Hash is deterministic for a given (password, salt)
// and Verify never panics, returning false for malformed digests.
type Hasher interface {
	Hash(password, salt string) string
	Verify(password, salt, digest string) bool
	NeedsUpgrade(digest string) bool
}

// Config selects and tunes a [Hasher].
type Config struct {
	Algorithm Algorithm
	Argon2    Argon2Config
}

// New returns the hasher named by cfg.Algorithm. An empty algorithm selects sha256.
func New(cfg Config) (Hasher, error) {
	switch cfg.Algorithm {
	case "", AlgorithmSHA256:
		return SHA256{}, nil
	case AlgorithmArgon2id:
		return NewArgon2(cfg.Argon2)
	default:
		return nil, errors.New("unsupported password algorithm")
	}
}

// Identify reports which algorithm produced digest. Anything that is not an
// argon2id PHC string is treated as a legacy sha256 digest.
func Identify(digest string) Algorithm {
	if strings.HasPrefix(digest, "$"+string(AlgorithmArgon2id)+"$") {
		return AlgorithmArgon2id
	}
	return AlgorithmSHA256
}

// Verify checks password against a stored {salt, digest} pair using whichever
// algorithm produced the digest.
func Verify(password, salt, digest string) bool {
	switch Identify(digest) {
	case AlgorithmArgon2id:
		return verifyArgon2(password, salt, digest)
	default:
		return SHA256{}.Verify(password, salt, digest)
	}
}
