package security_test

import (
	"testing"

	"github.com/mateoherrera/threadline-backend/pkg/security"
)

func TestGenerateOTPFormat(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := security.GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP returned error: %v", err)
		}
		if len(code) != security.OTPLength {
			t.Fatalf("expected %d digits, got %q", security.OTPLength, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit character in code %q", code)
			}
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatal("expected varied codes across generations")
	}
}

func TestChallengeHashRoundtrip(t *testing.T) {
	code, err := security.GenerateOTP()
	if err != nil {
		t.Fatalf("GenerateOTP returned error: %v", err)
	}

	hash := security.HashChallenge(code)
	if hash == code {
		t.Fatal("hash must differ from plaintext")
	}
	if !security.VerifyChallenge(code, hash) {
		t.Fatal("expected matching challenge to verify")
	}
	if security.VerifyChallenge("000000", security.HashChallenge("999999")) {
		t.Fatal("expected mismatched challenge to fail")
	}
}

func TestGenerateResetTokenUnique(t *testing.T) {
	a, err := security.GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken returned error: %v", err)
	}
	b, err := security.GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken returned error: %v", err)
	}
	if a == b {
		t.Fatal("expected unique reset tokens")
	}
}
