package scholium

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

const (
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLen      = 8

	// maxCodeAttempts bounds access-code regeneration on uniqueness collision.
	maxCodeAttempts = 5
)

// GenerateAccessCode returns a random join code, eg. "aB3cDeF2".
func GenerateAccessCode() (string, error) {
	buf := make([]byte, codeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
