package domain

import "time"

// SecureBytes holds secret material (a password or its hash). Owners call
// Wipe once the bytes are no longer needed; the usual pattern is
//
//	defer secret.Wipe()
type SecureBytes []byte

// Wipe overwrites the buffer with zeroes.
func (s SecureBytes) Wipe() {
	clear(s)
}

// Clone returns an independent copy.
func (s SecureBytes) Clone() SecureBytes {
	if s == nil {
		return nil
	}
	out := make(SecureBytes, len(s))
	copy(out, s)
	return out
}

// Empty reports whether the buffer holds no bytes.
func (s SecureBytes) Empty() bool {
	return len(s) == 0
}

// Credentials is a username/password attempt.
type Credentials struct {
	Username string
	Password SecureBytes
}

// ReservedUserInfo is the stored credential state of a reserved account.
//
// Whoever reads PasswordHash owns it and must wipe it afterwards.
//
// PasswordChangedAt is zero while the account is on its default credential
// or the record predates the field.
type ReservedUserInfo struct {
	PasswordHash       SecureBytes
	PasswordChangedAt  time.Time
	Enabled            bool
	HasDefaultPassword bool
}

// Clone deep-copies the info so the copy can be wiped independently.
func (r *ReservedUserInfo) Clone() *ReservedUserInfo {
	if r == nil {
		return nil
	}
	c := *r
	c.PasswordHash = r.PasswordHash.Clone()
	return &c
}

// Wipe zeroes the password hash.
func (r *ReservedUserInfo) Wipe() {
	if r != nil {
		r.PasswordHash.Wipe()
	}
}

// ChangePasswordRequest asks the credential store to replace the stored hash.
type ChangePasswordRequest struct {
	Username     string
	PasswordHash SecureBytes
}
