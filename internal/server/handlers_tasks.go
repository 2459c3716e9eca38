package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tablerolabs/tablero/internal/activity"
	"github.com/tablerolabs/tablero/internal/domain"
	"github.com/tablerolabs/tablero/internal/errors"
)

type createTaskRequest struct {
	ListID      uuid.UUID   `json:"list_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Position    float64     `json:"position"`
	Priority    string      `json:"priority"`
	Assignees   []uuid.UUID `json:"assignees"`
}

type updateTaskRequest struct {
	ListID      uuid.UUID   `json:"list_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Position    float64     `json:"position"`
	DueDate     *time.Time  `json:"due_date"`
	Priority    string      `json:"priority"`
	Assignees   []uuid.UUID `json:"assignees"`
}

type taskResponse struct {
	ID          string           `json:"id"`
	ListID      string           `json:"list_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Position    float64          `json:"position"`
	DueDate     *time.Time       `json:"due_date"`
	Priority    string           `json:"priority"`
	Assignees   []memberResponse `json:"assignees"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	assignees := make([]memberResponse, 0, len(t.Assignees))
	for id, username := range t.Assignees {
		assignees = append(assignees, memberResponse{ID: id.String(), Username: username})
	}
	return taskResponse{
		ID:          t.ID.String(),
		ListID:      t.ListID.String(),
		Title:       t.Title,
		Description: t.Description,
		Position:    t.Position,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Assignees:   assignees,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func parsePriority(raw string) (domain.Priority, error) {
	switch raw {
	case "":
		return domain.PriorityMedium, nil
	case string(domain.PriorityLow), string(domain.PriorityMedium), string(domain.PriorityHigh):
		return domain.Priority(raw), nil
	default:
		return "", errors.ValidationError("priority must be low, medium, or high")
	}
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errors.ValidationError("invalid request body"))
	}
	if req.Title == "" {
		return respondError(c, errors.ValidationError("title is required"))
	}
	if req.ListID == uuid.Nil {
		return respondError(c, errors.ValidationError("list_id is required"))
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	task, err := s.repos.Tasks.Create(ctx, req.ListID, req.Title, req.Description, req.Position, priority, req.Assignees)
	if err != nil {
		return respondError(c, err)
	}

	s.attributor.AttributeTaskCreation(ctx, currentUserID(c), task)

	return c.JSON(http.StatusCreated, toTaskResponse(task))
}

func (s *Server) handleGetTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid task id"))
	}

	task, err := s.repos.Tasks.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, notFoundOr(err, "task not found"))
	}
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid task id"))
	}

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, errors.ValidationError("invalid request body"))
	}
	if req.Title == "" {
		return respondError(c, errors.ValidationError("title is required"))
	}
	if req.ListID == uuid.Nil {
		return respondError(c, errors.ValidationError("list_id is required"))
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()

	// Authoritative pre-mutation snapshot, including assignees and the
	// containing list's title, for change classification.
	before, err := s.repos.Tasks.GetByID(ctx, id)
	if err != nil {
		return respondError(c, notFoundOr(err, "task not found"))
	}
	beforeSnap := activity.TaskSnapshotOf(before, s.listTitle(c, before.ListID))

	task, err := s.repos.Tasks.Update(ctx, id, domain.TaskUpdate{
		ListID:      req.ListID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		DueDate:     req.DueDate,
		Priority:    priority,
		Assignees:   req.Assignees,
	})
	if err != nil {
		return respondError(c, notFoundOr(err, "task not found"))
	}
	afterSnap := activity.TaskSnapshotOf(task, s.listTitle(c, task.ListID))

	s.attributor.AttributeTaskUpdate(ctx, currentUserID(c), id, beforeSnap, afterSnap)

	return c.JSON(http.StatusOK, toTaskResponse(task))
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid task id"))
	}

	ctx := c.Request().Context()
	task, err := s.repos.Tasks.GetByID(ctx, id)
	if err != nil {
		return respondError(c, notFoundOr(err, "task not found"))
	}

	// The deletion record is written before the row disappears; the hook
	// cannot attribute it afterwards.
	if err := s.attributor.RecordTaskDeletion(ctx, currentUserID(c), task); err != nil {
		return respondError(c, err)
	}

	if err := s.repos.Tasks.Delete(ctx, id); err != nil {
		return respondError(c, notFoundOr(err, "task not found"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListTasks(c echo.Context) error {
	listID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, errors.ValidationError("invalid list id"))
	}

	tasks, err := s.repos.Tasks.ListByList(c.Request().Context(), listID)
	if err != nil {
		return respondError(c, err)
	}

	resp := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}
	return c.JSON(http.StatusOK, resp)
}

// listTitle resolves a list's title for snapshots; a missing list degrades to
// an empty title rather than failing the request.
func (s *Server) listTitle(c echo.Context, listID uuid.UUID) string {
	list, err := s.repos.Lists.GetByID(c.Request().Context(), listID)
	if err != nil {
		return ""
	}
	return list.Title
}
