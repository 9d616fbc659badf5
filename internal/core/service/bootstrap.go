package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/pkg/async"
)

const bootstrapLockKey = "bootstrap:" + domain.ElasticUsername

// BootstrapElasticPassword installs passwordHash for the superuser when it is
// still on its default credential. It resolves true when this hash was
// installed and false, without error, when an administrator already chose a
// password or another process holds the bootstrap lock.
//
// Concurrent calls with the same hash share one read-then-write. Calls with
// different hashes run one after another, so only the first installs and the
// rest see a configured password. The shared write is detached from the
// callers' contexts: a caller that gives up stops waiting but does not abort
// the install for the others. Without a BootstrapLock, two processes can both
// pass the precondition read and the last write wins.
func (r *ReservedRealm) BootstrapElasticPassword(ctx context.Context, passwordHash domain.SecureBytes) *async.Future[bool] {
	key := bootstrapFlightKey(passwordHash)
	hash := passwordHash.Clone()
	flightCtx := context.WithoutCancel(ctx)

	return async.Go(ctx, func(ctx context.Context) (bool, error) {
		ch := r.bootstrap.DoChan(key, func() (any, error) {
			defer hash.Wipe()
			r.bootstrapMu.Lock()
			defer r.bootstrapMu.Unlock()
			return r.bootstrapElastic(flightCtx, hash)
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				return false, res.Err
			}
			return res.Val.(bool), nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	})
}

func bootstrapFlightKey(passwordHash domain.SecureBytes) string {
	sum := sha256.Sum256(passwordHash)
	return domain.ElasticUsername + ":" + hex.EncodeToString(sum[:])
}

func (r *ReservedRealm) bootstrapElastic(ctx context.Context, passwordHash domain.SecureBytes) (bool, error) {
	if r.lock != nil {
		release, acquired, err := r.lock.TryAcquire(ctx, bootstrapLockKey)
		if err != nil {
			return false, fmt.Errorf("bootstrap: acquire lock: %w", err)
		}
		if !acquired {
			r.log.Info().Msg("bootstrap already running elsewhere, skipping")
			return false, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				r.log.Warn().Err(err).Msg("failed to release bootstrap lock")
			}
		}()
	}

	if r.index.IndexExists(ctx) {
		stored, err := r.store.AllReservedUserInfo(ctx).Await(ctx)
		if err != nil {
			return false, &domain.LookupError{Principal: domain.ElasticUsername, Err: err}
		}
		current := stored[domain.ElasticUsername]
		hasCustomPassword := current != nil && !current.HasDefaultPassword
		for _, info := range stored {
			info.Wipe()
		}
		if hasCustomPassword {
			r.log.Info().Msg("superuser password already set, bootstrap skipped")
			return false, nil
		}
	}

	req := domain.ChangePasswordRequest{Username: domain.ElasticUsername, PasswordHash: passwordHash}
	if _, err := r.store.ChangePassword(ctx, req).Await(ctx); err != nil {
		r.log.Error().Err(err).Msg("failed to bootstrap superuser password")
		return false, err
	}
	r.log.Info().Msg("superuser password bootstrapped")
	return true, nil
}
