package domain

const (
	ElasticUsername        = "elastic"
	KibanaUsername         = "kibana"
	LogstashSystemUsername = "logstash_system"
	BeatsSystemUsername    = "beats_system"
)

// ReservedAccount is a built-in account with a fixed name. The set is closed:
// it is never loaded from configuration.
type ReservedAccount struct {
	Principal      string
	DefaultEnabled bool
	Roles          []string
	FullName       string
}

var reservedAccounts = [...]ReservedAccount{
	{Principal: ElasticUsername, DefaultEnabled: true, Roles: []string{RoleSuperuser}},
	{Principal: KibanaUsername, DefaultEnabled: true, Roles: []string{RoleKibanaSystem}},
	{Principal: LogstashSystemUsername, DefaultEnabled: true, Roles: []string{RoleLogstashSystem}},
	{Principal: BeatsSystemUsername, DefaultEnabled: true, Roles: []string{RoleBeatsSystem}},
}

// ReservedAccounts returns a copy of the built-in account list in a stable order.
func ReservedAccounts() []ReservedAccount {
	out := make([]ReservedAccount, len(reservedAccounts))
	copy(out, reservedAccounts[:])
	return out
}

// LookupReservedAccount finds the built-in account named principal.
func LookupReservedAccount(principal string) (ReservedAccount, bool) {
	for _, a := range reservedAccounts {
		if a.Principal == principal {
			return a, true
		}
	}
	return ReservedAccount{}, false
}

// Identity materialises the account. Only the superuser can be in setup mode;
// the flag is ignored for every other account.
func (a ReservedAccount) Identity(enabled, setupMode bool) *Identity {
	roles := make([]string, len(a.Roles))
	copy(roles, a.Roles)
	return &Identity{
		Username:  a.Principal,
		Roles:     roles,
		FullName:  a.FullName,
		Metadata:  map[string]any{MetadataReserved: true},
		Enabled:   enabled,
		SetupMode: setupMode && a.Principal == ElasticUsername,
	}
}

// DefaultUserInfo is the credential state an account has before anything was
// persisted for it: the empty password, enabled per the account default.
// The empty password is represented by an empty hash.
func (a ReservedAccount) DefaultUserInfo() *ReservedUserInfo {
	return &ReservedUserInfo{
		Enabled:            a.DefaultEnabled,
		HasDefaultPassword: true,
	}
}

// DisabledUserInfo is reported for an account whose stored schema predates it.
func (a ReservedAccount) DisabledUserInfo() *ReservedUserInfo {
	return &ReservedUserInfo{
		Enabled:            false,
		HasDefaultPassword: true,
	}
}
