// Package auth implements password hashing, session tokens, and the
// password-reset token lifecycle.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt for salted, adaptive password storage.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using the bcrypt default cost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.DefaultCost}
}

// Hash derives a salted one-way digest from a raw password. The returned
// string embeds the salt and cost; plaintext is never stored.
func (h *PasswordHasher) Hash(raw string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether raw matches the stored digest.
func (h *PasswordHasher) Verify(raw, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(raw)) == nil
}
