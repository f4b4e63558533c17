// Package passhash wraps bcrypt password hashing behind a minimal
// hash/verify API. A verification mismatch is an ordinary false result;
// only a malformed stored hash is treated as an error.
package passhash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash derives a salted bcrypt hash of the plaintext password using the
// default work factor.
func Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("in internal/passhash/passhash.go/Hash(): error while `bcrypt.GenerateFromPassword()` calling: %w", err)
	}

	return string(hash), nil
}

// Verify compares the plaintext password against a stored bcrypt hash.
// A mismatch yields (false, nil); an error is returned only when the
// stored hash cannot be parsed.
func Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, fmt.Errorf("in internal/passhash/passhash.go/Verify(): error while `bcrypt.CompareHashAndPassword()` calling: %w", err)
}
