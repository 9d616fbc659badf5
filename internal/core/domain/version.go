package domain

import "github.com/Masterminds/semver/v3"

var (
	// ReservedRealmIntroduced is the first mapping version that stores
	// reserved account credentials.
	ReservedRealmIntroduced = semver.MustParse("5.0.0")

	// LogstashSystemIntroduced is the first mapping version that knows the
	// logstash_system account.
	LogstashSystemIntroduced = semver.MustParse("5.2.0")

	// CurrentMappingVersion is written into the security index metadata when
	// this service creates the index.
	CurrentMappingVersion = semver.MustParse("6.0.0")
)
