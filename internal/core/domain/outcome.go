package domain

// OutcomeStatus tags an AuthenticationOutcome.
type OutcomeStatus int

const (
	// OutcomeNotApplicable means the realm does not govern the principal.
	OutcomeNotApplicable OutcomeStatus = iota
	OutcomeAuthenticated
	OutcomeFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeFailed:
		return "failed"
	default:
		return "not_applicable"
	}
}

// AuthenticationOutcome is the result of one authentication attempt. The zero
// value is NotApplicable, never Authenticated.
type AuthenticationOutcome struct {
	Status   OutcomeStatus
	Identity *Identity
	Err      error
}

func Authenticated(id *Identity) AuthenticationOutcome {
	return AuthenticationOutcome{Status: OutcomeAuthenticated, Identity: id}
}

func NotApplicable() AuthenticationOutcome {
	return AuthenticationOutcome{Status: OutcomeNotApplicable}
}

func Failed(err error) AuthenticationOutcome {
	return AuthenticationOutcome{Status: OutcomeFailed, Err: err}
}
