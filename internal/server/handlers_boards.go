package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tablerolabs/tablero/internal/domain"
	"github.com/tablerolabs/tablero/internal/errors"
)

type boardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type boardResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type memberResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toBoardResponse(b *domain.Board) boardResponse {
	return boardResponse{
		ID:          b.ID.String(),
		Name:        b.Name,
		Description: b.Description,
		OwnerID:     b.OwnerID.String(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (s *Server) handleListBoards(c echo.Context) error {
	boards, err := s.repos.Boards.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	resp := make([]boardResponse, 0, len(boards))
	for _, b := range boards {
		resp = append(resp, toBoardResponse(b))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreateBoard(c echo.Context) error {
	var req boardRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errors.ValidationError("invalid request body"))
	}
	if req.Name == "" {
		return respondError(c, errors.ValidationError("name is required"))
	}

	ctx := c.Request().Context()
	ownerID := currentUserID(c)

	board, err := s.repos.Boards.Create(ctx, req.Name, req.Description, ownerID)
	if err != nil {
		return respondError(c, err)
	}

	// The creator administers their own board.
	if _, err := s.repos.Members.Add(ctx, board.ID, ownerID, domain.RoleAdmin); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, toBoardResponse(board))
}

func (s *Server) handleGetBoard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid board id"))
	}

	board, err := s.repos.Boards.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, notFoundOr(err, "board not found"))
	}
	return c.JSON(http.StatusOK, toBoardResponse(board))
}

func (s *Server) handleUpdateBoard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid board id"))
	}

	var req boardRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errors.ValidationError("invalid request body"))
	}
	if req.Name == "" {
		return respondError(c, errors.ValidationError("name is required"))
	}

	board, err := s.repos.Boards.Update(c.Request().Context(), id, req.Name, req.Description)
	if err != nil {
		return respondError(c, notFoundOr(err, "board not found"))
	}
	return c.JSON(http.StatusOK, toBoardResponse(board))
}

func (s *Server) handleDeleteBoard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid board id"))
	}

	if err := s.repos.Boards.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, notFoundOr(err, "board not found"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListMembers(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid board id"))
	}

	members, err := s.repos.Members.ListByBoard(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	resp := make([]memberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, memberResponse{
			ID:       m.UserID.String(),
			Username: m.Username,
			Email:    m.Email,
			Role:     string(m.Role),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
