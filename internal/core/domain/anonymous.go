package domain

// DefaultAnonymousUsername is used when no anonymous username is configured.
const DefaultAnonymousUsername = "_anonymous"

// AnonymousUser is the identity assigned to unauthenticated requests. It is
// configured separately from the reserved accounts and is active only when it
// has been granted at least one role.
type AnonymousUser struct {
	Username string
	Roles    []string
}

// NewAnonymousUser builds the anonymous user, defaulting an empty username.
func NewAnonymousUser(username string, roles []string) AnonymousUser {
	if username == "" {
		username = DefaultAnonymousUsername
	}
	filtered := make([]string, 0, len(roles))
	for _, r := range roles {
		if r != "" {
			filtered = append(filtered, r)
		}
	}
	return AnonymousUser{Username: username, Roles: filtered}
}

// Enabled reports whether anonymous access is granted any role.
func (a AnonymousUser) Enabled() bool {
	return len(a.Roles) > 0
}

// Matches reports whether username names the anonymous user.
func (a AnonymousUser) Matches(username string) bool {
	return username != "" && username == a.Username
}

// Identity materialises the anonymous user.
func (a AnonymousUser) Identity() *Identity {
	roles := make([]string, len(a.Roles))
	copy(roles, a.Roles)
	return &Identity{
		Username: a.Username,
		Roles:    roles,
		Metadata: map[string]any{MetadataReserved: true},
		Enabled:  true,
	}
}
