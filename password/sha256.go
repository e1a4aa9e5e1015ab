package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SHA256 is the legacy single-pass salted hasher: hex(sha256(password ‖ salt)).
//
// No stretching is applied. Prefer [Argon2] for new credentials; SHA256 exists so
// that credentials written by earlier deployments keep verifying.
type SHA256 struct{}

// Hash returns the lowercase hex digest of password ‖ salt.
func (SHA256) Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest and compares it in constant time. Digests that are
// not 64 hex characters never match.
func (SHA256) Verify(password, salt, digest string) bool {
	stored, err := hex.DecodeString(digest)
	if err != nil || len(stored) != sha256.Size {
		return false
	}
	sum := sha256.Sum256([]byte(password + salt))
	return subtle.ConstantTimeCompare(sum[:], stored) == 1
}

// NeedsUpgrade is always false: SHA256 never asks to re-hash its own digests.
func (SHA256) NeedsUpgrade(string) bool {
	return false
}
