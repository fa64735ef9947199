package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoPassword is returned for accounts created through an OAuth provider,
// which store an empty hash and cannot log in with credentials.
var ErrNoPassword = errors.New("account has no password")

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) error {
	if hash == "" {
		return ErrNoPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
