package utils // package utils provides helpers for identifiers shown to customers

import (
	"crypto/rand"
	"math/big"
)

// ReferenceAlphabet is the set of characters a booking reference is drawn from.
const ReferenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReferenceLength is the number of characters in a booking reference.
const ReferenceLength = 8

var alphabetSize = big.NewInt(int64(len(ReferenceAlphabet)))

// NewReferenceID draws ReferenceLength characters uniformly from
// ReferenceAlphabet using crypto/rand.  It does not check uniqueness;
// callers must check the store and draw again on collision.
func NewReferenceID() (string, error) {
	buf := make([]byte, ReferenceLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		buf[i] = ReferenceAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// IsReferenceID reports whether s has the shape of a booking reference.
func IsReferenceID(s string) bool {
	if len(s) != ReferenceLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
