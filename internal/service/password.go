package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the minimum bcrypt cost used when provisioning admins.
const DefaultHashCost = 12

// HashPassword returns a bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("hash password: %w", ErrInvalidInput)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// PasswordHasher binds a cost so the hasher can be passed where a
// func(string) (string, error) is expected, e.g. config.ApplySeed.
func PasswordHasher(cost int) func(string) (string, error) {
	return func(password string) (string, error) {
		return HashPassword(password, cost)
	}
}
