package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tablerolabs/tablero/internal/domain"
	"github.com/tablerolabs/tablero/internal/event"
	"github.com/tablerolabs/tablero/internal/logging"
	"github.com/tablerolabs/tablero/internal/metrics"
)

// Publisher is the slice of the hub the pipeline needs.
type Publisher interface {
	Publish(boardID uuid.UUID, e event.Event)
}

// Recorder implements domain.MutationObserver. It runs synchronously inside
// the storage layer's save path, so it never fails the save: record-write
// errors are logged and the broadcast still goes out.
type Recorder struct {
	records domain.ActivityRepository
	lists   domain.ListRepository
	boards  domain.BoardRepository
	pub     Publisher
	clock   clockwork.Clock
}

func NewRecorder(records domain.ActivityRepository, lists domain.ListRepository, boards domain.BoardRepository, pub Publisher, clock clockwork.Clock) *Recorder {
	return &Recorder{records: records, lists: lists, boards: boards, pub: pub, clock: clock}
}

// BoardSaved writes the board mutation record and, for updates, publishes
// board_updated to the board group. Boards are the one entity the hook can
// attribute on its own: the owner is on the row. Creation is not broadcast;
// no group exists before the board does.
func (r *Recorder) BoardSaved(ctx context.Context, board *domain.Board, created bool) {
	action := fmt.Sprintf("Board '%s' updated", board.Name)
	if created {
		action = fmt.Sprintf("Board '%s' created", board.Name)
	}
	r.writeAttributed(ctx, domain.KindBoard, board.ID, board.OwnerID, action, "attributed")

	if created {
		return
	}
	r.pub.Publish(board.ID, event.BoardUpdated{Board: event.BoardPayload{
		ID:          board.ID,
		Name:        board.Name,
		Description: board.Description,
	}})
}

// BoardDeleted writes the owner-attributed deletion record. No broadcast:
// the group dies with the board.
func (r *Recorder) BoardDeleted(ctx context.Context, board *domain.Board) {
	action := fmt.Sprintf("Board '%s' deleted", board.Name)
	r.writeAttributed(ctx, domain.KindBoard, board.ID, board.OwnerID, action, "deletion")
}

// ListSaved writes a provisional record for the list mutation and publishes
// list_created / list_updated to the board group.
func (r *Recorder) ListSaved(ctx context.Context, list *domain.List, created bool) {
	action := fmt.Sprintf("List '%s' updated", list.Title)
	if created {
		action = fmt.Sprintf("List '%s' created", list.Title)
		if board, err := r.boards.GetByID(ctx, list.BoardID); err == nil {
			action = fmt.Sprintf("List '%s' created in board '%s'", list.Title, board.Name)
		}
	}
	r.writeProvisional(ctx, domain.KindList, list.ID, action)

	payload := listPayload(list)
	if created {
		r.pub.Publish(list.BoardID, event.ListCreated{List: payload})
	} else {
		r.pub.Publish(list.BoardID, event.ListUpdated{List: payload})
	}
}

// TaskSaved writes a provisional record for the task mutation and publishes
// task_created / task_updated to the board group. The containing list is
// resolved to find the board; a task whose list is gone has no group to
// notify.
func (r *Recorder) TaskSaved(ctx context.Context, task *domain.Task, created bool) {
	list, err := r.lists.GetByID(ctx, task.ListID)
	if err != nil {
		slog.Error("Failed to resolve list for task mutation", "task_id", task.ID.String(), "list_id", task.ListID.String(), "error", err)
		return
	}

	action := fmt.Sprintf("Task '%s' updated", task.Title)
	if created {
		action = fmt.Sprintf("Task '%s' created in list '%s'", task.Title, list.Title)
	}
	r.writeProvisional(ctx, domain.KindTask, task.ID, action)

	payload := taskPayload(task)
	if created {
		r.pub.Publish(list.BoardID, event.TaskCreated{Task: payload})
	} else {
		r.pub.Publish(list.BoardID, event.TaskUpdated{Task: payload})
	}
}

// TaskDeleted publishes task_deleted. The attributed deletion record is the
// request handler's responsibility; by the time this hook runs the row and
// its relations are gone.
func (r *Recorder) TaskDeleted(ctx context.Context, task *domain.Task) {
	list, err := r.lists.GetByID(ctx, task.ListID)
	if err != nil {
		slog.Error("Failed to resolve list for task deletion", "task_id", task.ID.String(), "list_id", task.ListID.String(), "error", err)
		return
	}
	r.pub.Publish(list.BoardID, event.TaskDeleted{TaskID: task.ID})
}

// MemberAdded publishes member_added to the board group.
func (r *Recorder) MemberAdded(ctx context.Context, member *domain.BoardMember) {
	r.pub.Publish(member.BoardID, event.MemberAdded{Member: event.MemberPayload{
		ID:       member.UserID,
		Username: member.Username,
		Email:    member.Email,
		Role:     string(member.Role),
	}})
}

func (r *Recorder) writeProvisional(ctx context.Context, kind domain.EntityKind, entityID uuid.UUID, action string) {
	rec := &domain.ActivityRecord{
		ID:         uuid.New(),
		ActorID:    nil,
		Action:     action,
		EntityKind: kind,
		EntityID:   entityID,
		Timestamp:  r.clock.Now(),
	}
	if err := r.records.Insert(ctx, rec); err != nil {
		logging.WithError(err).Error("Failed to write provisional activity record", "entity_kind", string(kind), "entity_id", entityID.String())
		return
	}
	metrics.ActivityRecordsTotal.WithLabelValues("provisional").Inc()
}

func (r *Recorder) writeAttributed(ctx context.Context, kind domain.EntityKind, entityID, actorID uuid.UUID, action, outcome string) {
	rec := &domain.ActivityRecord{
		ID:         uuid.New(),
		ActorID:    &actorID,
		Action:     action,
		EntityKind: kind,
		EntityID:   entityID,
		Timestamp:  r.clock.Now(),
	}
	if err := r.records.Insert(ctx, rec); err != nil {
		logging.WithError(err).Error("Failed to write activity record", "entity_kind", string(kind), "entity_id", entityID.String())
		return
	}
	metrics.ActivityRecordsTotal.WithLabelValues(outcome).Inc()
}

func listPayload(list *domain.List) event.ListPayload {
	return event.ListPayload{
		ID:       list.ID,
		Title:    list.Title,
		BoardID:  list.BoardID,
		Position: list.Position,
	}
}

func taskPayload(task *domain.Task) event.TaskPayload {
	return event.TaskPayload{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		ListID:      task.ListID,
		Position:    task.Position,
		DueDate:     task.DueDate,
		Priority:    string(task.Priority),
	}
}
