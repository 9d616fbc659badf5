package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/reserved-realm/internal/core/domain"
	"github.com/99minutos/reserved-realm/internal/core/ports"
	"github.com/99minutos/reserved-realm/pkg/logger"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
)

type eventService struct {
	eventRepo ports.EventRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewEventService returns an EventService implementation.
func NewEventService(eventRepo ports.EventRepository, log zerolog.Logger) ports.EventService {
	return &eventService{
		eventRepo: eventRepo,
		log:       logger.Component(log, "security_audit"),
		now:       time.Now,
	}
}

// Record appends an event to the audit trail. The change it describes has
// already been applied, so a failed insert is logged and not returned.
func (s *eventService) Record(ctx context.Context, in ports.SecurityEventInput) {
	event := &domain.SecurityEvent{
		Type:      in.Type,
		Username:  in.Username,
		Actor:     in.Actor,
		Source:    in.Source,
		Timestamp: s.now().UTC(),
	}
	if err := s.eventRepo.InsertEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("username", in.Username).
			Str("type", string(in.Type)).
			Msg("failed to insert audit event")
		return
	}

	s.log.Info().
		Str("username", in.Username).
		Str("type", string(in.Type)).
		Str("actor", in.Actor).
		Msg("security event recorded")
}

// Recent lists the newest events, optionally for a single reserved user.
func (s *eventService) Recent(ctx context.Context, username string, limit int) ([]*domain.SecurityEvent, error) {
	if username != "" {
		if _, ok := domain.LookupReservedAccount(username); !ok {
			return nil, domain.ErrUserNotFound
		}
	}
	switch {
	case limit <= 0:
		limit = defaultEventLimit
	case limit > maxEventLimit:
		limit = maxEventLimit
	}

	events, err := s.eventRepo.RecentEvents(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}
