package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used for new accounts.
const DefaultPasswordCost = 12

// PasswordHasher wraps bcrypt. A zero value uses DefaultPasswordCost.
type PasswordHasher struct {
	Cost int

	// dummy is compared against when no account exists so that unknown
	// emails cost about as much as wrong passwords.
	dummy []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("studymatch-dummy-password"), cost)
	return &PasswordHasher{Cost: cost, dummy: dummy}
}

// Hash returns the salted bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether password matches hash. Errors other than a plain
// mismatch (a malformed hash, for instance) are returned.
func (h *PasswordHasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// CompareDummy burns one comparison against a throwaway hash.
func (h *PasswordHasher) CompareDummy(password string) {
	if len(h.dummy) > 0 {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	}
}
