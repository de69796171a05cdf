package security

import (
	"crypto/rand"
	"math/big"
)

// otpSpan covers the inclusive range [100000, 999999], so every code is six digits.
const (
	otpMin  = 100000
	otpSpan = 900000
)

// GenerateOTP returns a 6-digit numeric one-time code (e.g. "123456"),
// drawn uniformly from [100000, 999999] using crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	return big.NewInt(otpMin + n.Int64()).String(), nil
}
