package hashing

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/reserved-realm/internal/core/domain"
)

// BcryptHasher hashes passwords with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password domain.SecureBytes) (domain.SecureBytes, error) {
	hash, err := bcrypt.GenerateFromPassword(password, h.cost)
	if err != nil {
		return nil, err
	}
	return domain.SecureBytes(hash), nil
}

func (h *BcryptHasher) Verify(password, hash domain.SecureBytes) bool {
	return bcrypt.CompareHashAndPassword(hash, password) == nil
}
