package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_andCheck(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", hash)
	}
	if !CheckPassword("correct horse", hash) {
		t.Error("correct password should check out")
	}
	if CheckPassword("wrong horse", hash) {
		t.Error("wrong password should not check out")
	}
	if CheckPassword("correct horse", "not-a-hash") {
		t.Error("malformed hash should not check out")
	}
}

func TestHashPassword_tooShort(t *testing.T) {
	if _, err := HashPassword("12345"); err == nil {
		t.Error("passwords shorter than the minimum should be rejected")
	}
}

func TestHashPassword_salted(t *testing.T) {
	h1, err := HashPassword("same password")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashPassword("same password")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (bcrypt salts)")
	}
}
