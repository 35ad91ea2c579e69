package utils

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// OptimisticIDPrefix marks transaction ids that were generated locally by the
// wallet store before the server confirmed the mutation.
const OptimisticIDPrefix = "txn_"

// HashPin hashes an account PIN for storage.
func HashPin(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPin reports whether pin matches the stored hash.
func CheckPin(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// NewOptimisticID generates a unique client-side transaction id.
func NewOptimisticID() string {
	return OptimisticIDPrefix + uuid.NewString()
}

// IsOptimisticID reports whether id was generated by NewOptimisticID.
func IsOptimisticID(id string) bool {
	return strings.HasPrefix(id, OptimisticIDPrefix)
}
