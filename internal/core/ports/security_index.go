package ports

import (
	"context"

	"github.com/Masterminds/semver/v3"
)

// VersionPredicate decides whether a mapping version is recent enough.
type VersionPredicate func(*semver.Version) bool

// SecurityIndex reports on the state of the backing credential collection.
type SecurityIndex interface {
	// IndexExists reports whether the security index has been created.
	IndexExists(ctx context.Context) bool
	// IndexAvailable reports whether the index can currently serve reads.
	IndexAvailable(ctx context.Context) bool
	// CheckMappingVersion evaluates pred against the stored mapping version.
	// It returns true when the index does not exist yet.
	CheckMappingVersion(ctx context.Context, pred VersionPredicate) bool
}
