// Package hashx wraps bcrypt for one-way hashing of secrets at rest:
// account passwords, one-time verification codes, and password-reset tokens.
package hashx

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor applied to every hashed secret.
const Cost = bcrypt.DefaultCost

// Hash returns the salted bcrypt hash of plaintext. The hash embeds its own
// salt and cost, so it is self-contained for later verification.
func Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches the stored bcrypt hash.
// The comparison is constant-time. A malformed stored hash yields false,
// never an error.
func Verify(plaintext string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
