// Package password generates random credentials that are easy to copy by hand.
package password

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// DefaultLength is used for database passwords and signing secrets.
const DefaultLength = 100

// ambiguous characters are easy to misread when a password is copied by hand.
const ambiguous = "O0Il1"

// Alphabet is ASCII letters and digits without the ambiguous characters.
var Alphabet = func() string {
	const all = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var b strings.Builder
	for _, c := range all {
		if !strings.ContainsRune(ambiguous, c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}()

// Generate returns a random password of exactly length characters drawn from Alphabet.
func Generate(length int) (string, error) {
	if length < 1 {
		return "", errors.New("password length must be at least 1")
	}
	limit := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = Alphabet[n.Int64()]
	}
	return string(out), nil
}

// MustGenerate is like Generate but panics on error.
func MustGenerate(length int) string {
	s, err := Generate(length)
	if err != nil {
		panic(err)
	}
	return s
}
