package domain

// RealmSettings controls the reserved realm.
type RealmSettings struct {
	// Enabled turns the realm on. When off, reserved accounts are hidden.
	Enabled bool
	// AcceptDefaultPassword allows the empty default password from localhost.
	AcceptDefaultPassword bool
}

// DefaultRealmSettings mirrors the configuration defaults.
func DefaultRealmSettings() RealmSettings {
	return RealmSettings{Enabled: true, AcceptDefaultPassword: true}
}
