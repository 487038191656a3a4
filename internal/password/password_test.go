package password

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptRoundtrip(t *testing.T) {
	h := Bcrypt{Cost: bcrypt.MinCost}

	hashed, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Verify("hunter2", hashed) {
		t.Fatalf("correct password rejected")
	}
	if h.Verify("wrong", hashed) {
		t.Fatalf("wrong password accepted")
	}
	if h.Verify("hunter2", "not-a-hash") {
		t.Fatalf("junk hash accepted")
	}
}
