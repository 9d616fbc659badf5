package hashing

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/reserved-realm/internal/core/domain"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash(domain.SecureBytes("changeme"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if string(hash) == "changeme" {
		t.Fatalf("expected password to be hashed")
	}
	if !h.Verify(domain.SecureBytes("changeme"), hash) {
		t.Fatalf("expected password to verify")
	}
	if h.Verify(domain.SecureBytes("wrong"), hash) {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestBcryptHasher_WipedHashNeverVerifies(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash(domain.SecureBytes("changeme"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hash.Wipe()
	if h.Verify(domain.SecureBytes("changeme"), hash) {
		t.Fatalf("wiped hash must not verify")
	}
}

func TestNewBcryptHasher_DefaultsCost(t *testing.T) {
	if got := NewBcryptHasher(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", got)
	}
}
