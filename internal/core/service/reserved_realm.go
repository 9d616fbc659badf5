package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/core/ports"
	"github.com/99minutos/reserved-realm/internal/pkg/async"
	"github.com/99minutos/reserved-realm/pkg/logger"
)

const minPasswordLength = 6

// IsReserved reports whether principal is a built-in account governed by an
// enabled reserved realm. The anonymous user is never reserved.
func IsReserved(principal string, settings domain.RealmSettings) bool {
	if !settings.Enabled {
		return false
	}
	_, ok := domain.LookupReservedAccount(principal)
	return ok
}

// ReservedRealm authenticates the built-in accounts against the credentials
// stored in the security index, falling back to the default credential when
// nothing was stored yet.
type ReservedRealm struct {
	settings    domain.RealmSettings
	store       ports.CredentialStore
	index       ports.SecurityIndex
	hasher      ports.Hasher
	anonymous   domain.AnonymousUser
	lock        ports.BootstrapLock
	bootstrap   singleflight.Group
	bootstrapMu sync.Mutex // serializes installs of different hashes
	log         zerolog.Logger
}

// Option customises a ReservedRealm.
type Option func(*ReservedRealm)

// WithBootstrapLock serializes bootstrap across processes.
func WithBootstrapLock(lock ports.BootstrapLock) Option {
	return func(r *ReservedRealm) { r.lock = lock }
}

func NewReservedRealm(
	settings domain.RealmSettings,
	store ports.CredentialStore,
	index ports.SecurityIndex,
	hasher ports.Hasher,
	anonymous domain.AnonymousUser,
	log zerolog.Logger,
	opts ...Option,
) *ReservedRealm {
	r := &ReservedRealm{
		settings:  settings,
		store:     store,
		index:     index,
		hasher:    hasher,
		anonymous: anonymous,
		log:       logger.Component(log, "reserved_realm"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Authenticate resolves a username/password attempt. Failures complete the
// future with an error and an outcome tagged Failed; principals the realm does
// not govern resolve to NotApplicable. The password is copied, so the caller
// may wipe its buffer as soon as Authenticate returns.
func (r *ReservedRealm) Authenticate(ctx context.Context, creds domain.Credentials, prov domain.RequestProvenance) *async.Future[domain.AuthenticationOutcome] {
	creds.Password = creds.Password.Clone()
	return async.Go(ctx, func(ctx context.Context) (domain.AuthenticationOutcome, error) {
		defer creds.Password.Wipe()
		out := r.authenticate(ctx, creds, prov)
		return out, out.Err
	})
}

func (r *ReservedRealm) authenticate(ctx context.Context, creds domain.Credentials, prov domain.RequestProvenance) domain.AuthenticationOutcome {
	if !r.settings.Enabled {
		return domain.NotApplicable()
	}
	// The anonymous user is claimed here so no other realm accepts a
	// password for it.
	if r.anonymous.Matches(creds.Username) {
		return domain.Failed(&domain.AuthenticationError{Principal: creds.Username})
	}
	account, ok := domain.LookupReservedAccount(creds.Username)
	if !ok {
		return domain.NotApplicable()
	}

	info, err := r.userInfo(ctx, account, true)
	if err != nil {
		return domain.Failed(err)
	}
	defer info.Wipe()

	authErr := &domain.AuthenticationError{Principal: account.Principal}

	if creds.Password.Empty() {
		if !info.HasDefaultPassword || !r.settings.AcceptDefaultPassword || !prov.IsLocalREST() {
			r.log.Debug().
				Str("user", account.Principal).
				Bool("has_default_password", info.HasDefaultPassword).
				Bool("accept_default_password", r.settings.AcceptDefaultPassword).
				Str("channel", string(prov.Channel)).
				Msg("default password rejected")
			return domain.Failed(authErr)
		}
		return domain.Authenticated(identityOf(account, info, true))
	}

	if info.PasswordHash.Empty() || !r.hasher.Verify(creds.Password, info.PasswordHash) {
		return domain.Failed(authErr)
	}
	return domain.Authenticated(identityOf(account, info, info.HasDefaultPassword))
}

// Lookup resolves a principal without a password. Unknown principals, a
// disabled realm and a disabled anonymous user all resolve to nil; store
// failures resolve to a LookupError.
func (r *ReservedRealm) Lookup(ctx context.Context, username string) *async.Future[*domain.Identity] {
	return async.Go(ctx, func(ctx context.Context) (*domain.Identity, error) {
		if !r.settings.Enabled {
			return nil, nil
		}
		if r.anonymous.Matches(username) {
			if r.anonymous.Enabled() {
				return r.anonymous.Identity(), nil
			}
			return nil, nil
		}
		account, ok := domain.LookupReservedAccount(username)
		if !ok {
			return nil, nil
		}

		info, err := r.userInfo(ctx, account, false)
		if err != nil {
			return nil, err
		}
		defer info.Wipe()
		return identityOf(account, info, info.HasDefaultPassword), nil
	})
}

// Users lists the identities this realm can produce.
func (r *ReservedRealm) Users(ctx context.Context) *async.Future[[]*domain.Identity] {
	return async.Go(ctx, func(ctx context.Context) ([]*domain.Identity, error) {
		users := make([]*domain.Identity, 0, len(domain.ReservedAccounts())+1)
		if r.settings.Enabled {
			listed, err := r.reservedUsers(ctx)
			if err != nil {
				return nil, err
			}
			users = append(users, listed...)
		}
		if r.anonymous.Enabled() {
			users = append(users, r.anonymous.Identity())
		}
		return users, nil
	})
}

func (r *ReservedRealm) reservedUsers(ctx context.Context) ([]*domain.Identity, error) {
	accounts := domain.ReservedAccounts()
	out := make([]*domain.Identity, 0, len(accounts))

	if !r.index.IndexExists(ctx) {
		for _, a := range accounts {
			info := a.DefaultUserInfo()
			out = append(out, a.Identity(info.Enabled, info.HasDefaultPassword))
		}
		return out, nil
	}

	stored, err := r.store.AllReservedUserInfo(ctx).Await(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to list reserved users")
		return nil, fmt.Errorf("list reserved users: %w: %w", domain.ErrLookupFailed, err)
	}
	defer func() {
		for _, info := range stored {
			info.Wipe()
		}
	}()

	for _, a := range accounts {
		info := stored[a.Principal]
		switch {
		case !r.index.CheckMappingVersion(ctx, VersionPredicate(a.Principal)):
			info = a.DisabledUserInfo()
		case info == nil:
			info = a.DefaultUserInfo()
		}
		out = append(out, a.Identity(info.Enabled, info.HasDefaultPassword))
	}
	return out, nil
}

// ChangePassword hashes password and stores it for a reserved account. The
// password is copied before the call returns.
func (r *ReservedRealm) ChangePassword(ctx context.Context, username string, password domain.SecureBytes) *async.Future[struct{}] {
	password = password.Clone()
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		defer password.Wipe()
		if !IsReserved(username, r.settings) {
			return struct{}{}, domain.ErrUserNotFound
		}
		if len(password) < minPasswordLength {
			return struct{}{}, fmt.Errorf("%w: must be at least %d characters", domain.ErrInvalidPassword, minPasswordLength)
		}
		if r.index.IndexExists(ctx) && !r.index.CheckMappingVersion(ctx, VersionPredicate(username)) {
			return struct{}{}, &domain.MigrationPendingError{Principal: username}
		}

		hash, err := r.hasher.Hash(password)
		if err != nil {
			return struct{}{}, fmt.Errorf("hash password: %w", err)
		}
		defer hash.Wipe()

		if _, err := r.store.ChangePassword(ctx, domain.ChangePasswordRequest{Username: username, PasswordHash: hash}).Await(ctx); err != nil {
			return struct{}{}, fmt.Errorf("change password for [%s]: %w", username, err)
		}
		r.log.Info().Str("user", username).Msg("reserved user password changed")
		return struct{}{}, nil
	})
}

// SetEnabled enables or disables a reserved account without touching its
// credential.
func (r *ReservedRealm) SetEnabled(ctx context.Context, username string, enabled bool) *async.Future[struct{}] {
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		if !IsReserved(username, r.settings) {
			return struct{}{}, domain.ErrUserNotFound
		}
		if r.index.IndexExists(ctx) && !r.index.CheckMappingVersion(ctx, VersionPredicate(username)) {
			return struct{}{}, &domain.MigrationPendingError{Principal: username}
		}
		if _, err := r.store.SetEnabled(ctx, username, enabled).Await(ctx); err != nil {
			return struct{}{}, fmt.Errorf("set enabled for [%s]: %w", username, err)
		}
		r.log.Info().Str("user", username).Bool("enabled", enabled).Msg("reserved user enabled flag changed")
		return struct{}{}, nil
	})
}

func identityOf(account domain.ReservedAccount, info *domain.ReservedUserInfo, setupMode bool) *domain.Identity {
	id := account.Identity(info.Enabled, setupMode)
	id.PasswordChangedAt = info.PasswordChangedAt
	return id
}

// userInfo fetches the stored credential state of account. When the index
// has not been created yet every account is on its default credential. When
// the index mapping predates the account, strict callers get a
// MigrationPendingError and lenient ones see the account as disabled.
func (r *ReservedRealm) userInfo(ctx context.Context, account domain.ReservedAccount, strict bool) (*domain.ReservedUserInfo, error) {
	if !r.index.IndexExists(ctx) {
		r.log.Debug().Str("user", account.Principal).Msg("security index missing, using default credentials")
		return account.DefaultUserInfo(), nil
	}

	if !r.index.CheckMappingVersion(ctx, VersionPredicate(account.Principal)) {
		if strict {
			r.log.Warn().Str("user", account.Principal).Msg("security index mapping predates user")
			return nil, &domain.MigrationPendingError{Principal: account.Principal}
		}
		return account.DisabledUserInfo(), nil
	}

	info, err := r.store.ReservedUserInfo(ctx, account.Principal).Await(ctx)
	if err != nil {
		r.log.Error().Err(err).Str("user", account.Principal).Msg("failed to retrieve reserved user info")
		return nil, &domain.LookupError{Principal: account.Principal, Err: err}
	}
	if info == nil {
		return account.DefaultUserInfo(), nil
	}
	return info, nil
}
