package ports

import (
	"context"

	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/pkg/async"
)

// CredentialStore persists reserved account credentials in the security index.
//
// Every operation is asynchronous. A missing record resolves to nil, not to an
// error; errors are reserved for store failures. Timeouts and retries are the
// implementation's responsibility.
type CredentialStore interface {
	ReservedUserInfo(ctx context.Context, username string) *async.Future[*domain.ReservedUserInfo]
	AllReservedUserInfo(ctx context.Context) *async.Future[map[string]*domain.ReservedUserInfo]
	ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) *async.Future[struct{}]
	SetEnabled(ctx context.Context, username string, enabled bool) *async.Future[struct{}]
}
