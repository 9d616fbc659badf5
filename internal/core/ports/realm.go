package ports

import (
	"context"
	"time"

	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/pkg/async"
)

// ReservedRealm is the gate exposed to the request pipeline.
type ReservedRealm interface {
	Authenticate(ctx context.Context, creds domain.Credentials, prov domain.RequestProvenance) *async.Future[domain.AuthenticationOutcome]
	Lookup(ctx context.Context, username string) *async.Future[*domain.Identity]
	Users(ctx context.Context) *async.Future[[]*domain.Identity]
	ChangePassword(ctx context.Context, username string, password domain.SecureBytes) *async.Future[struct{}]
	SetEnabled(ctx context.Context, username string, enabled bool) *async.Future[struct{}]
	BootstrapElasticPassword(ctx context.Context, passwordHash domain.SecureBytes) *async.Future[bool]
}

// TokenService issues access tokens for authenticated identities.
type TokenService interface {
	Issue(id *domain.Identity) (string, error)
	Parse(token string) (*TokenClaims, error)
	TTL() time.Duration
}

// TokenClaims are the claims carried by an access token.
//
// PasswordStamp is the subject's Identity.PasswordStamp at issue time.
type TokenClaims struct {
	ID            string
	Username      string
	Roles         []string
	IssuedAt      time.Time
	PasswordStamp int64
}
