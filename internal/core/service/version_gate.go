package service

import (
	"github.com/Masterminds/semver/v3"

	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/core/ports"
)

// VersionPredicate returns the mapping-version check for principal. It is a
// pure function and callers build it on every call: the cluster can be
// upgraded between two requests.
//
// logstash_system was added to the mapping after the other accounts, so it
// requires a later minimum version.
func VersionPredicate(principal string) ports.VersionPredicate {
	minimum := domain.ReservedRealmIntroduced
	if principal == domain.LogstashSystemUsername {
		minimum = domain.LogstashSystemIntroduced
	}
	return func(v *semver.Version) bool {
		return v != nil && !v.LessThan(minimum)
	}
}
