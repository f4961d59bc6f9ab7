package utils

import "golang.org/x/crypto/bcrypt"

// HashKey returns the bcrypt hash of a key using the given cost.  Used by
// operators to produce the ADMIN_KEY_HASH value.
func HashKey(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyKey safely compares a bcrypt hash and a plain key.
func VerifyKey(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
