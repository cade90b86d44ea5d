package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes what the client sent. Clients already hash the password
// before it leaves the browser; the server treats that value as the secret.
// bcrypt only reads 72 bytes, so the value is reduced to a SHA-256 digest
// first and digests of any length stay distinct.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(digest(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), digest(password)) == nil
}

func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}
