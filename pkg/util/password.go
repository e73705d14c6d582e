package util

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is lowered by tests; production keeps the default of 12.
var BcryptCost = 12

// dummyHash is compared against when no user matches a login attempt so both
// failure paths spend the same bcrypt work.
var (
	dummyOnce sync.Once
	dummyHash []byte
)

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// BurnPasswordCheck performs a throwaway comparison and always reports false.
func BurnPasswordCheck(password string) bool {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return false
}
