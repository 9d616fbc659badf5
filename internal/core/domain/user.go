package domain

import (
	"maps"
	"slices"
	"time"
)

const (
	RoleSuperuser      = "superuser"
	RoleKibanaSystem   = "kibana_system"
	RoleLogstashSystem = "logstash_system"
	RoleBeatsSystem    = "beats_system"
)

// MetadataReserved flags identities that belong to a reserved account.
const MetadataReserved = "_reserved"

// Identity models a resolved principal handed back to the request pipeline.
//
// Enabled is informational at this layer: a disabled identity is still
// returned by the realm and the caller decides whether it may act.
type Identity struct {
	Username  string         `json:"username"`
	Roles     []string       `json:"roles"`
	FullName  string         `json:"full_name,omitempty"`
	Email     string         `json:"email,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Enabled   bool           `json:"enabled"`
	SetupMode bool           `json:"setup_mode,omitempty"`

	// PasswordChangedAt is when the credential behind this identity was
	// last set. Tokens issued against an older credential are refused.
	PasswordChangedAt time.Time `json:"-"`
}

// PasswordStamp encodes PasswordChangedAt in Unix milliseconds, or 0 for a
// credential that was never changed.
func (i *Identity) PasswordStamp() int64 {
	if i.PasswordChangedAt.IsZero() {
		return 0
	}
	return i.PasswordChangedAt.UnixMilli()
}

// HasRole reports whether the identity was granted role.
func (i *Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// IsReserved reports whether the identity represents a built-in account.
func (i *Identity) IsReserved() bool {
	v, _ := i.Metadata[MetadataReserved].(bool)
	return v
}

// Equal compares two identities field by field. SetupMode takes part in the
// comparison, so the superuser in setup mode differs from the configured one.
func (i *Identity) Equal(o *Identity) bool {
	if i == nil || o == nil {
		return i == o
	}
	return i.Username == o.Username &&
		i.FullName == o.FullName &&
		i.Email == o.Email &&
		i.Enabled == o.Enabled &&
		i.SetupMode == o.SetupMode &&
		slices.Equal(i.Roles, o.Roles) &&
		maps.Equal(i.Metadata, o.Metadata)
}
