// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for new hashes.
var Cost = bcrypt.DefaultCost

// ErrEmpty is returned when asked to hash an empty password.
var ErrEmpty = errors.New("password: empty")

// Hash returns a salted bcrypt hash of plaintext.
func Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmpty
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether plaintext matches hash. bcrypt compares in constant time.
func Matches(hash, plaintext string) bool {
	if hash == "" || plaintext == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
