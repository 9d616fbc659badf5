package domain

import (
	"errors"
	"fmt"
)

var ErrAuthenticationFailed = errors.New("authentication failed")
var ErrMigrationPending = errors.New("security index migration pending")
var ErrLookupFailed = errors.New("reserved user lookup failed")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidPassword = errors.New("invalid password")
var ErrUserDisabled = errors.New("user disabled")
var ErrForbidden = errors.New("access forbidden")

// AuthenticationError rejects an attempt for a known principal. The message
// always names the principal so audit logs can correlate it.
type AuthenticationError struct {
	Principal string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("failed to authenticate user [%s]", e.Principal)
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

// MigrationPendingError is returned when the security index mapping is older
// than the one required to read the principal's credentials.
type MigrationPendingError struct {
	Principal string
}

func (e *MigrationPendingError) Error() string {
	return fmt.Sprintf("security index mapping is too old to authenticate user [%s]", e.Principal)
}

func (e *MigrationPendingError) Is(target error) bool {
	return target == ErrMigrationPending
}

// LookupError wraps a credential store failure.
type LookupError struct {
	Principal string
	Err       error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("failed to lookup user [%s]: %v", e.Principal, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func (e *LookupError) Is(target error) bool {
	return target == ErrLookupFailed
}
