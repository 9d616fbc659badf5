package ports

import "github.com/99minutos/reserved-realm/internal/core/domain"

// Hasher is the configured password hashing scheme.
type Hasher interface {
	Hash(password domain.SecureBytes) (domain.SecureBytes, error)
	Verify(password, hash domain.SecureBytes) bool
}
