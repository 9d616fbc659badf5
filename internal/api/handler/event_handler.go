package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/reserved-realm/internal/core/ports"
)

// EventHandler serves the reserved-account audit trail.
type EventHandler struct {
	events ports.EventService
}

// NewEventHandler creates an EventHandler backed by the given service.
func NewEventHandler(events ports.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// List handles GET /_security/_audit.
//
// @Summary      List audit events
// @Tags         security
// @Produce      json
// @Security     BasicAuth
// @Param        username  query     string  false  "Reserved username"
// @Param        limit     query     int     false  "Maximum number of events (default 20, max 100)"
// @Success      200       {object}  auditResponse
// @Failure      400       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /_security/_audit [get]
func (h *EventHandler) List(c echo.Context) error {
	var q auditQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	events, err := h.events.Recent(ctx, q.Username, q.Limit)
	if err != nil {
		return err
	}
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(len(events)))
	return c.JSON(http.StatusOK, auditResponse{Events: toEventResponses(events)})
}
