package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// DefaultOTPLength is the number of digits in a generated code.
const DefaultOTPLength = 5

// GenerateOTP returns length independent uniformly-random decimal digits.
// The plaintext code is shown to the user exactly once and never persisted.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		length = DefaultOTPLength
	}
	buf := make([]byte, length)
	code := make([]byte, length)
	for i := 0; i < length; {
		if _, err := rand.Read(buf[:1]); err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		// Reject bytes >= 250 so each digit stays uniform.
		if buf[0] >= 250 {
			continue
		}
		code[i] = '0' + buf[0]%10
		i++
	}
	return string(code), nil
}

// HashOTP returns the SHA-256 hex digest of the code for storage.
func HashOTP(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// VerifyOTP hashes the candidate and compares it against the stored digest
// in constant time.
func VerifyOTP(candidate, storedHash string) bool {
	candidateHash := HashOTP(candidate)
	return subtle.ConstantTimeCompare([]byte(candidateHash), []byte(storedHash)) == 1
}
