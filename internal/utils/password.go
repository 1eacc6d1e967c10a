package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// VerifyPasswordTimingSafe compares plain against hash.  When hash is empty
// (the account does not exist) it still runs a full bcrypt comparison
// against a dummy hash of the same cost and reports false, so an unknown
// login costs as much as a wrong password.
func VerifyPasswordTimingSafe(hash, plain string, cost int) bool {
	if hash != "" {
		return VerifyPassword(hash, plain)
	}
	dummyOnce.Do(func() {
		h, err := HashPassword("goaltime-timing-equalizer", cost)
		if err != nil {
			h, _ = HashPassword("goaltime-timing-equalizer", bcrypt.DefaultCost)
		}
		dummyHash = h
	})
	_ = VerifyPassword(dummyHash, plain)
	return false
}
