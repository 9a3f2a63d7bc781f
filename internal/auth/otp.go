package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

const (
	otpMin = 10000
	otpMax = 99999
	// OTPLength is the number of digits in an issued code.
	OTPLength = 5
)

// CodeGenerator issues numeric one-time codes.
type CodeGenerator interface {
	NewCode() (int, error)
}

// RandomCodes draws codes uniformly from [10000, 99999] using crypto/rand.
type RandomCodes struct{}

func (RandomCodes) NewCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return 0, fmt.Errorf("draw otp: %w", err)
	}
	return otpMin + int(n.Int64()), nil
}

// IsCodeFormat reports whether s is exactly five ASCII digits.
func IsCodeFormat(s string) bool {
	if len(s) != OTPLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CodeMatches compares the stored code with user input as strings. A cleared
// code never matches.
func CodeMatches(stored int, entered string) bool {
	if stored <= 0 {
		return false
	}
	return strconv.Itoa(stored) == entered
}
