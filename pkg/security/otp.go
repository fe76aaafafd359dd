package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	// OTPLength is the number of digits in a verification code.
	OTPLength = 6

	resetTokenBytes = 32
)

// GenerateOTP produces a random numeric code of OTPLength digits.
// Leading zeros are preserved.
func GenerateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < OTPLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n), nil
}

// GenerateResetToken produces an opaque token for password reset links.
func GenerateResetToken() (string, error) {
	bytes := make([]byte, resetTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// HashChallenge returns the hex-encoded SHA-256 digest stored in place of
// the plaintext OTP or reset token.
func HashChallenge(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// VerifyChallenge compares a plaintext value against a stored digest in
// constant time.
func VerifyChallenge(value, storedHash string) bool {
	computed := HashChallenge(value)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
