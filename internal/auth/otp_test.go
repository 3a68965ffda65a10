package auth

import (
	"encoding/hex"
	"testing"
)

func TestGenerateOTP_lengthAndDigits(t *testing.T) {
	for _, length := range []int{1, 5, 6, 8} {
		code, err := GenerateOTP(length)
		if err != nil {
			t.Fatalf("GenerateOTP(%d): %v", length, err)
		}
		if len(code) != length {
			t.Errorf("GenerateOTP(%d) returned %q (len %d)", length, code, len(code))
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Errorf("GenerateOTP(%d) returned non-digit %q", length, code)
			}
		}
	}
}

func TestGenerateOTP_defaultLength(t *testing.T) {
	code, err := GenerateOTP(0)
	if err != nil {
		t.Fatalf("GenerateOTP(0): %v", err)
	}
	if len(code) != DefaultOTPLength {
		t.Errorf("zero length should fall back to %d digits, got %q", DefaultOTPLength, code)
	}
}

func TestGenerateOTP_varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP(6)
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		seen[code] = true
	}
	// 50 draws from a million values colliding down to one code would mean
	// the generator is broken.
	if len(seen) < 2 {
		t.Error("GenerateOTP returned the same code 50 times")
	}
}

func TestHashOTP_shape(t *testing.T) {
	h1 := HashOTP("12345")
	h2 := HashOTP("12345")
	if h1 != h2 {
		t.Errorf("hash should be deterministic: %q != %q", h1, h2)
	}
	decoded, err := hex.DecodeString(h1)
	if err != nil {
		t.Fatalf("hash should be valid hex: %v", err)
	}
	if len(decoded) != 32 {
		t.Errorf("SHA-256 hash should be 32 bytes, got %d", len(decoded))
	}
	if HashOTP("12345") == HashOTP("12346") {
		t.Error("different codes should produce different hashes")
	}
}

func TestVerifyOTP(t *testing.T) {
	stored := HashOTP("54321")
	if !VerifyOTP("54321", stored) {
		t.Error("correct code should verify")
	}
	if VerifyOTP("54320", stored) {
		t.Error("wrong code should not verify")
	}
	if VerifyOTP("", stored) {
		t.Error("empty code should not verify")
	}
}
