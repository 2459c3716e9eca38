package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type activityResponse struct {
	ID         string    `json:"id"`
	Actor      *string   `json:"actor"`
	Action     string    `json:"action"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *Server) handleListActivity(c echo.Context) error {
	limit := defaultActivityLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxActivityLimit)
		}
	}

	records, err := s.repos.Activity.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, err)
	}

	resp := make([]activityResponse, 0, len(records))
	for _, rec := range records {
		entry := activityResponse{
			ID:         rec.ID.String(),
			Action:     rec.Action,
			EntityKind: string(rec.EntityKind),
			EntityID:   rec.EntityID.String(),
			Timestamp:  rec.Timestamp,
		}
		if rec.ActorID != nil {
			name := rec.ActorName
			entry.Actor = &name
		}
		resp = append(resp, entry)
	}
	return c.JSON(http.StatusOK, resp)
}
