package security

import (
	"unicode"

	"github.com/matthewhartstonge/argon2"
)

// HashPassword hashes a plaintext password with argon2id.
func HashPassword(password string) (string, error) {
	argon := argon2.DefaultConfig()

	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword checks a plaintext password against an encoded argon2
// hash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}

// IsStrongPassword reports whether a password satisfies the strength
// policy: at least 8 characters with at least one uppercase letter, one
// lowercase letter, one digit and one non-alphanumeric character.
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSpecial
}
