package handlers

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/99minutos/reserved-realm/internal/core/ports"
)

var errSecurityIndexUnavailable = errors.New("security index unavailable")

// MongoCheck pings the primary.
func MongoCheck(client *mongo.Client) Check {
	return Check{Name: "mongodb", Probe: func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}}
}

// RedisCheck pings Redis.
func RedisCheck(client *redis.Client) Check {
	return Check{Name: "redis", Probe: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// SecurityIndexCheck requires the security index to exist and answer.
func SecurityIndexCheck(index ports.SecurityIndex) Check {
	return Check{Name: "security_index", Probe: func(ctx context.Context) error {
		if !index.IndexAvailable(ctx) {
			return errSecurityIndexUnavailable
		}
		return nil
	}}
}
