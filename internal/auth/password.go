package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt digest of plaintext. The digest embeds a
// random per-call salt, so hashing the same plaintext twice yields two
// different digests that both verify.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether plaintext matches the stored digest.
func CheckPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
