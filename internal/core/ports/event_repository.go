package ports

import (
	"context"

	"github.com/99minutos/reserved-realm/internal/core/domain"
)

// EventRepository persists the reserved-account audit trail.
type EventRepository interface {
	// InsertEvent appends an event to the security_audit collection.
	InsertEvent(ctx context.Context, event *domain.SecurityEvent) error

	// RecentEvents returns up to limit events, newest first. An empty
	// username matches every account.
	RecentEvents(ctx context.Context, username string, limit int) ([]*domain.SecurityEvent, error)
}
