package ports

import (
	"context"

	"github.com/99minutos/reserved-realm/internal/core/domain"
)

// SecurityEventInput is the DTO passed from the transport layer to EventService.
type SecurityEventInput struct {
	Type     domain.SecurityEventType
	Username string
	Actor    string
	Source   string
}

// EventService records and lists changes made to reserved accounts.
type EventService interface {
	Record(ctx context.Context, event SecurityEventInput)
	Recent(ctx context.Context, username string, limit int) ([]*domain.SecurityEvent, error)
}
