package server

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tablerolabs/tablero/internal/activity"
	"github.com/tablerolabs/tablero/internal/domain"
	"github.com/tablerolabs/tablero/internal/errors"
)

type createListRequest struct {
	BoardID  uuid.UUID `json:"board_id"`
	Title    string    `json:"title"`
	Position float64   `json:"position"`
}

type updateListRequest struct {
	Title    string  `json:"title"`
	Position float64 `json:"position"`
}

type listResponse struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Position  float64   `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toListResponse(l *domain.List) listResponse {
	return listResponse{
		ID:        l.ID.String(),
		BoardID:   l.BoardID.String(),
		Title:     l.Title,
		Position:  l.Position,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// notFoundOr maps domain.ErrNotFound to a 404 with the given message and
// passes every other error through unchanged.
func notFoundOr(err error, message string) error {
	if stderrors.Is(err, domain.ErrNotFound) {
		return errors.NotFoundError(message)
	}
	return err
}

func (s *Server) handleCreateList(c echo.Context) error {
	var req createListRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errors.ValidationError("invalid request body"))
	}
	if req.Title == "" {
		return respondError(c, errors.ValidationError("title is required"))
	}
	if req.BoardID == uuid.Nil {
		return respondError(c, errors.ValidationError("board_id is required"))
	}

	ctx := c.Request().Context()
	list, err := s.repos.Lists.Create(ctx, req.BoardID, req.Title, req.Position)
	if err != nil {
		return respondError(c, err)
	}

	s.attributor.AttributeListCreation(ctx, currentUserID(c), list)

	return c.JSON(http.StatusCreated, toListResponse(list))
}

func (s *Server) handleUpdateList(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid list id"))
	}

	var req updateListRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errors.ValidationError("invalid request body"))
	}
	if req.Title == "" {
		return respondError(c, errors.ValidationError("title is required"))
	}

	ctx := c.Request().Context()

	// Authoritative pre-mutation snapshot for change classification.
	before, err := s.repos.Lists.GetByID(ctx, id)
	if err != nil {
		return respondError(c, notFoundOr(err, "list not found"))
	}

	list, err := s.repos.Lists.Update(ctx, id, req.Title, req.Position)
	if err != nil {
		return respondError(c, notFoundOr(err, "list not found"))
	}

	s.attributor.AttributeListUpdate(ctx, currentUserID(c), id,
		activity.ListSnapshotOf(before), activity.ListSnapshotOf(list))

	return c.JSON(http.StatusOK, toListResponse(list))
}

func (s *Server) handleDeleteList(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid list id"))
	}

	ctx := c.Request().Context()
	list, err := s.repos.Lists.GetByID(ctx, id)
	if err != nil {
		return respondError(c, notFoundOr(err, "list not found"))
	}

	// The deletion record is written before the row disappears; the hook
	// cannot attribute it afterwards.
	if err := s.attributor.RecordListDeletion(ctx, currentUserID(c), list); err != nil {
		return respondError(c, err)
	}

	if err := s.repos.Lists.Delete(ctx, id); err != nil {
		return respondError(c, notFoundOr(err, "list not found"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListLists(c echo.Context) error {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid board id"))
	}

	lists, err := s.repos.Lists.ListByBoard(c.Request().Context(), boardID)
	if err != nil {
		return respondError(c, err)
	}

	resp := make([]listResponse, 0, len(lists))
	for _, l := range lists {
		resp = append(resp, toListResponse(l))
	}
	return c.JSON(http.StatusOK, resp)
}
