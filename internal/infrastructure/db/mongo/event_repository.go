package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/core/ports"
)

const auditCollection = "security_audit"

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	db *mongo.Database
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventRepository {
	return &EventRepository{db: db}
}

type eventDoc struct {
	Type        string    `bson:"type"`
	Username    string    `bson:"username"`
	Actor       string    `bson:"actor,omitempty"`
	Source      string    `bson:"source,omitempty"`
	Timestamp   time.Time `bson:"timestamp"`
	ProcessedAt time.Time `bson:"processed_at"`
}

// InsertEvent persists an event to the security_audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.SecurityEvent) error {
	doc := eventDoc{
		Type:        string(event.Type),
		Username:    event.Username,
		Actor:       event.Actor,
		Source:      event.Source,
		Timestamp:   event.Timestamp.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	if _, err := r.db.Collection(auditCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// RecentEvents returns the newest events first.
func (r *EventRepository) RecentEvents(ctx context.Context, username string, limit int) ([]*domain.SecurityEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.db.Collection(auditCollection).Find(ctx, eventFilter(username), opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}
	out := make([]*domain.SecurityEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.SecurityEvent{
			Type:      domain.SecurityEventType(d.Type),
			Username:  d.Username,
			Actor:     d.Actor,
			Source:    d.Source,
			Timestamp: d.Timestamp.UTC(),
		})
	}
	return out, nil
}

func eventFilter(username string) bson.M {
	if username == "" {
		return bson.M{}
	}
	return bson.M{"username": username}
}

// EnsureAuditIndexes creates the index backing RecentEvents.
func EnsureAuditIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(auditCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("username_timestamp"),
	})
	if err != nil {
		return fmt.Errorf("create audit index: %w", err)
	}
	return nil
}
