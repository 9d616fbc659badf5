package handler

import (
	"time"

	"github.com/99minutos/reserved-realm/internal/core/domain"
)

type auditQuery struct {
	Username string `query:"username"`
	Limit    int    `query:"limit"    validate:"gte=0,lte=100"`
}

type eventResponse struct {
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	Actor     string    `json:"actor,omitempty"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type auditResponse struct {
	Events []eventResponse `json:"events"`
}

func toEventResponses(events []*domain.SecurityEvent) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			Type:      string(e.Type),
			Username:  e.Username,
			Actor:     e.Actor,
			Source:    e.Source,
			Timestamp: e.Timestamp,
		})
	}
	return out
}
