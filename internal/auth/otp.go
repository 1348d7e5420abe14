package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	otpMin   = 10000
	otpRange = 90000
)

// GenerateOTP returns a random five-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}
