// Package password implements the credential hashing and verification policy.
// It is deliberately stateless: lockout counters and login timestamps are
// owned by the caller, which keeps this package testable in isolation.
package password

import (
	"crypto/rand"

	"golang.org/x/crypto/bcrypt"
)

// SaltSize is the number of random bytes generated per user.
const SaltSize = 16

// Hash derives a bcrypt hash from the plaintext concatenated with a freshly
// generated per-user salt. Both hash and salt are stored on the user record.
func Hash(plain []byte) (hash, salt []byte, err error) {
	salt = make([]byte, SaltSize)
	if _, err = rand.Read(salt); err != nil {
		return nil, nil, err
	}

	salted := make([]byte, 0, len(plain)+len(salt))
	salted = append(salted, plain...)
	salted = append(salted, salt...)

	hash, err = bcrypt.GenerateFromPassword(salted, bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	return hash, salt, nil
}

// Verify reports whether plain matches the stored hash under the lockout
// policy. Inactive accounts and accounts at or past maxAttempts fail
// immediately, before any hash computation. On a mismatch the caller must
// increment the stored failed-attempt counter; on a match it must reset the
// counter and stamp last_login.
func Verify(plain, hash, salt []byte, failedAttempts, maxAttempts int, isActive bool) bool {
	if !isActive {
		return false
	}
	if failedAttempts >= maxAttempts {
		return false
	}

	salted := make([]byte, 0, len(plain)+len(salt))
	salted = append(salted, plain...)
	salted = append(salted, salt...)

	return bcrypt.CompareHashAndPassword(hash, salted) == nil
}
