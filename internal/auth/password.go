package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashAccessKey hashes the daemon's access key for storage
func HashAccessKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckAccessKey compares a supplied access key against its stored hash
func CheckAccessKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
