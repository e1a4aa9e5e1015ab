package password

import (
	"crypto/rand"
	"errors"
	"io"
)

const (
	// DefaultSaltLength is the number of characters produced by [GenerateSalt].
	DefaultSaltLength = 16

	saltAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// largest multiple of len(saltAlphabet) that fits in a byte; bytes at or
	// above it are rejected to keep the distribution uniform.
	saltRejectAbove = 256 - 256%len(saltAlphabet)
)

// GenerateSalt returns a fresh random salt of [DefaultSaltLength] characters
// drawn from [A-Za-z0-9].
func GenerateSalt() (string, error) {
	return GenerateSaltN(DefaultSaltLength)
}

// GenerateSaltN returns a fresh random salt of n characters drawn from [A-Za-z0-9].
func GenerateSaltN(n int) (string, error) {
	return generateSalt(rand.Reader, n)
}

func generateSalt(r io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("salt length must be > 0")
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+1)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= saltRejectAbove {
				continue
			}
			out = append(out, saltAlphabet[int(b)%len(saltAlphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}
