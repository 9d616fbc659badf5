package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/99minutos/reserved-realm/internal/core/ports"
	"github.com/99minutos/reserved-realm/pkg/logger"
)

const (
	metaCollection = "security_meta"
	metaDocID      = "security-index"

	// Mongo error code for "collection already exists".
	codeNamespaceExists = 48
)

// ErrMappingVersionInvalid marks a recorded mapping version that is not semver.
var ErrMappingVersionInvalid = errors.New("invalid mapping version")

type metaDoc struct {
	ID             string `bson:"_id"`
	MappingVersion string `bson:"mapping_version"`
	UpdatedAt      int64  `bson:"updated_at"`
}

// SecurityIndex reports on the collection holding reserved credentials and
// the mapping version recorded next to it.
type SecurityIndex struct {
	db  *mongo.Database
	log zerolog.Logger
}

func NewSecurityIndex(db *mongo.Database, log zerolog.Logger) *SecurityIndex {
	return &SecurityIndex{db: db, log: logger.Component(log, "security_index")}
}

// IndexExists reports whether the credentials collection has been created.
// When the check itself fails the index is assumed to exist, so the following
// read surfaces the failure instead of the realm falling back to default
// credentials.
func (i *SecurityIndex) IndexExists(ctx context.Context) bool {
	names, err := i.db.ListCollectionNames(ctx, bson.M{"name": reservedUsersCollection})
	if err != nil {
		i.log.Error().Err(err).Msg("failed to check security index existence")
		return true
	}
	return len(names) > 0
}

// IndexAvailable reports whether the index exists and the primary answers.
func (i *SecurityIndex) IndexAvailable(ctx context.Context) bool {
	if !i.IndexExists(ctx) {
		return false
	}
	return i.db.Client().Ping(ctx, readpref.Primary()) == nil
}

// CheckMappingVersion evaluates pred against the recorded mapping version. A
// missing index passes. An unrecorded or invalid version is handed to pred as
// nil. A failed read passes too, so the credential read that follows reports
// the outage.
func (i *SecurityIndex) CheckMappingVersion(ctx context.Context, pred ports.VersionPredicate) bool {
	if !i.IndexExists(ctx) {
		return true
	}
	v, err := i.MappingVersion(ctx)
	switch {
	case errors.Is(err, ErrMappingVersionInvalid):
		i.log.Warn().Err(err).Msg("security index mapping version unreadable")
	case err != nil:
		i.log.Error().Err(err).Msg("failed to read security index mapping version")
		return true
	}
	return pred(v)
}

// MappingVersion returns the recorded mapping version, or nil when none was
// recorded.
func (i *SecurityIndex) MappingVersion(ctx context.Context) (*semver.Version, error) {
	var doc metaDoc
	err := i.db.Collection(metaCollection).FindOne(ctx, bson.M{"_id": metaDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find security meta: %w", err)
	}
	v, err := semver.NewVersion(doc.MappingVersion)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrMappingVersionInvalid, doc.MappingVersion, err)
	}
	return v, nil
}

// EnsureSecurityIndex creates the credentials collection, its unique
// username index and the meta document. An already recorded mapping version
// is left untouched.
func (i *SecurityIndex) EnsureSecurityIndex(ctx context.Context, version *semver.Version) error {
	err := i.db.CreateCollection(ctx, reservedUsersCollection)
	var cmdErr mongo.CommandError
	if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists) {
		return fmt.Errorf("create security index: %w", err)
	}

	_, err = i.db.Collection(reservedUsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("create username index: %w", err)
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"mapping_version": version.String(),
			"updated_at":      time.Now().Unix(),
		},
	}
	_, err = i.db.Collection(metaCollection).UpdateOne(ctx, bson.M{"_id": metaDocID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("record mapping version: %w", err)
	}
	i.log.Info().Str("mapping_version", version.String()).Msg("security index ready")
	return nil
}
