package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/infrastructure/queue"
	"github.com/99minutos/reserved-realm/internal/pkg/async"
)

const (
	reservedUsersCollection = "security_reserved_users"
	reservedUserIDPrefix    = "reserved-user-"
	allUsersKey             = "*"
)

// ReservedUserStore persists reserved account credentials. Every operation
// runs on the dispatcher shard owning the username, so a read issued after a
// password change on the same account observes it.
type ReservedUserStore struct {
	coll *mongo.Collection
	exec *queue.Dispatcher
}

func NewReservedUserStore(db *mongo.Database, exec *queue.Dispatcher) *ReservedUserStore {
	return &ReservedUserStore{coll: db.Collection(reservedUsersCollection), exec: exec}
}

// An empty Password means the account is still on its default credential.
type reservedUserDoc struct {
	ID                string    `bson:"_id"`
	Username          string    `bson:"username"`
	Password          string    `bson:"password"`
	Enabled           bool      `bson:"enabled"`
	UpdatedAt         int64     `bson:"updated_at"`
	PasswordChangedAt time.Time `bson:"password_changed_at,omitempty"`
}

func reservedUserID(username string) string {
	return reservedUserIDPrefix + username
}

func (d reservedUserDoc) toInfo() *domain.ReservedUserInfo {
	return &domain.ReservedUserInfo{
		PasswordHash:       domain.SecureBytes(d.Password),
		PasswordChangedAt:  d.PasswordChangedAt,
		Enabled:            d.Enabled,
		HasDefaultPassword: d.Password == "",
	}
}

func (d reservedUserDoc) principal() string {
	if d.Username != "" {
		return d.Username
	}
	return strings.TrimPrefix(d.ID, reservedUserIDPrefix)
}

// ReservedUserInfo resolves to nil when nothing is stored for username.
func (s *ReservedUserStore) ReservedUserInfo(ctx context.Context, username string) *async.Future[*domain.ReservedUserInfo] {
	return queue.Run(s.exec, ctx, username, func(ctx context.Context) (*domain.ReservedUserInfo, error) {
		var doc reservedUserDoc
		err := s.coll.FindOne(ctx, bson.M{"_id": reservedUserID(username)}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("find reserved user: %w", err)
		}
		return doc.toInfo(), nil
	})
}

func (s *ReservedUserStore) AllReservedUserInfo(ctx context.Context) *async.Future[map[string]*domain.ReservedUserInfo] {
	return queue.Run(s.exec, ctx, allUsersKey, func(ctx context.Context) (map[string]*domain.ReservedUserInfo, error) {
		filter := bson.M{"_id": bson.M{"$regex": "^" + reservedUserIDPrefix}}
		cur, err := s.coll.Find(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list reserved users: %w", err)
		}
		defer cur.Close(ctx)

		out := make(map[string]*domain.ReservedUserInfo)
		for cur.Next(ctx) {
			var doc reservedUserDoc
			if err := cur.Decode(&doc); err != nil {
				return nil, fmt.Errorf("decode reserved user: %w", err)
			}
			out[doc.principal()] = doc.toInfo()
		}
		if err := cur.Err(); err != nil {
			return nil, fmt.Errorf("iterate reserved users: %w", err)
		}
		return out, nil
	})
}

// ChangePassword upserts the hash. A newly created record is enabled; an
// existing record keeps its enabled flag.
func (s *ReservedUserStore) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) *async.Future[struct{}] {
	hash := string(req.PasswordHash)
	return queue.Run(s.exec, ctx, req.Username, func(ctx context.Context) (struct{}, error) {
		now := time.Now()
		update := bson.M{
			"$set": bson.M{
				"username":            req.Username,
				"password":            hash,
				"updated_at":          now.Unix(),
				"password_changed_at": now,
			},
			"$setOnInsert": bson.M{"enabled": true},
		}
		_, err := s.coll.UpdateOne(ctx, bson.M{"_id": reservedUserID(req.Username)}, update, options.Update().SetUpsert(true))
		if err != nil {
			return struct{}{}, fmt.Errorf("update reserved user password: %w", err)
		}
		return struct{}{}, nil
	})
}

// SetEnabled flips the enabled flag, creating a record on the default
// credential when none exists.
func (s *ReservedUserStore) SetEnabled(ctx context.Context, username string, enabled bool) *async.Future[struct{}] {
	return queue.Run(s.exec, ctx, username, func(ctx context.Context) (struct{}, error) {
		update := bson.M{
			"$set": bson.M{
				"username":   username,
				"enabled":    enabled,
				"updated_at": time.Now().Unix(),
			},
			"$setOnInsert": bson.M{"password": ""},
		}
		_, err := s.coll.UpdateOne(ctx, bson.M{"_id": reservedUserID(username)}, update, options.Update().SetUpsert(true))
		if err != nil {
			return struct{}{}, fmt.Errorf("update reserved user enabled: %w", err)
		}
		return struct{}{}, nil
	})
}
