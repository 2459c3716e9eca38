package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tablerolabs/tablero/internal/diff"
	"github.com/tablerolabs/tablero/internal/domain"
	"github.com/tablerolabs/tablero/internal/metrics"
)

// Attributor is the handler-side half of the pipeline. It reconciles the
// provisional record the Recorder wrote moments earlier with the actor and
// the authoritative diff the request handler holds.
//
// The lookup is deliberately a best-effort race window, not a transaction:
// when no provisional record is found the attribution is a silent no-op and
// the log keeps a stray unattributed row at worst. Clients get the
// broadcast either way.
type Attributor struct {
	records domain.ActivityRepository
	clock   clockwork.Clock
}

func NewAttributor(records domain.ActivityRepository, clock clockwork.Clock) *Attributor {
	return &Attributor{records: records, clock: clock}
}

// AttributeTaskCreation patches the newest provisional record for a freshly
// created task with the actor and the canonical created description.
func (a *Attributor) AttributeTaskCreation(ctx context.Context, actorID uuid.UUID, task *domain.Task) {
	res := diff.ClassifyTask(nil, diff.TaskSnapshot{Title: task.Title})
	a.patch(ctx, domain.KindTask, task.ID, actorID, res.Description)
}

// AttributeListCreation patches the newest provisional record for a freshly
// created list.
func (a *Attributor) AttributeListCreation(ctx context.Context, actorID uuid.UUID, list *domain.List) {
	res := diff.ClassifyList(nil, diff.ListSnapshot{Title: list.Title})
	a.patch(ctx, domain.KindList, list.ID, actorID, res.Description)
}

// AttributeTaskUpdate recomputes the diff from the handler's pre-mutation
// snapshot. Noise deletes the provisional record; a real change patches it
// with the actor and the recomputed description, overriding the hook's
// guess. Returns the classification so callers can inspect the typed delta.
func (a *Attributor) AttributeTaskUpdate(ctx context.Context, actorID, taskID uuid.UUID, before, after diff.TaskSnapshot) diff.Result {
	res := diff.ClassifyTask(&before, after)
	if res.Change == diff.Noise {
		a.discard(ctx, domain.KindTask, taskID)
		return res
	}
	a.patch(ctx, domain.KindTask, taskID, actorID, res.Description)
	return res
}

// AttributeListUpdate is the list counterpart of AttributeTaskUpdate.
func (a *Attributor) AttributeListUpdate(ctx context.Context, actorID, listID uuid.UUID, before, after diff.ListSnapshot) diff.Result {
	res := diff.ClassifyList(&before, after)
	if res.Change == diff.Noise {
		a.discard(ctx, domain.KindList, listID)
		return res
	}
	a.patch(ctx, domain.KindList, listID, actorID, res.Description)
	return res
}

// RecordTaskDeletion writes the fully attributed deletion record. Callers
// invoke it before the row is removed.
func (a *Attributor) RecordTaskDeletion(ctx context.Context, actorID uuid.UUID, task *domain.Task) error {
	return a.recordDeletion(ctx, actorID, domain.KindTask, task.ID, fmt.Sprintf("deleted task '%s'", task.Title))
}

// RecordListDeletion writes the fully attributed deletion record for a list.
func (a *Attributor) RecordListDeletion(ctx context.Context, actorID uuid.UUID, list *domain.List) error {
	return a.recordDeletion(ctx, actorID, domain.KindList, list.ID, fmt.Sprintf("deleted list '%s'", list.Title))
}

func (a *Attributor) recordDeletion(ctx context.Context, actorID uuid.UUID, kind domain.EntityKind, entityID uuid.UUID, action string) error {
	rec := &domain.ActivityRecord{
		ID:         uuid.New(),
		ActorID:    &actorID,
		Action:     action,
		EntityKind: kind,
		EntityID:   entityID,
		Timestamp:  a.clock.Now(),
	}
	if err := a.records.Insert(ctx, rec); err != nil {
		return fmt.Errorf("failed to record deletion: %w", err)
	}
	metrics.ActivityRecordsTotal.WithLabelValues("deletion").Inc()
	return nil
}

func (a *Attributor) patch(ctx context.Context, kind domain.EntityKind, entityID, actorID uuid.UUID, action string) {
	err := a.records.AttributeNewestProvisional(ctx, kind, entityID, actorID, action)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.ActivityAttributionMisses.Inc()
		slog.Debug("No provisional record to attribute", "entity_kind", string(kind), "entity_id", entityID.String())
		return
	}
	if err != nil {
		slog.Error("Failed to attribute activity record", "entity_kind", string(kind), "entity_id", entityID.String(), "error", err)
		return
	}
	metrics.ActivityRecordsTotal.WithLabelValues("attributed").Inc()
}

func (a *Attributor) discard(ctx context.Context, kind domain.EntityKind, entityID uuid.UUID) {
	err := a.records.DeleteNewestProvisional(ctx, kind, entityID)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.ActivityAttributionMisses.Inc()
		return
	}
	if err != nil {
		slog.Error("Failed to discard noise activity record", "entity_kind", string(kind), "entity_id", entityID.String(), "error", err)
		return
	}
	metrics.ActivityRecordsTotal.WithLabelValues("discarded").Inc()
}

// TaskSnapshotOf builds a diff snapshot from a task and the title of its
// containing list.
func TaskSnapshotOf(task *domain.Task, listTitle string) diff.TaskSnapshot {
	assignees := make(map[uuid.UUID]string, len(task.Assignees))
	for id, name := range task.Assignees {
		assignees[id] = name
	}
	return diff.TaskSnapshot{
		Title:       task.Title,
		Description: task.Description,
		ListID:      task.ListID,
		ListTitle:   listTitle,
		Position:    task.Position,
		DueDate:     task.DueDate,
		Assignees:   assignees,
	}
}

// ListSnapshotOf builds a diff snapshot from a list.
func ListSnapshotOf(list *domain.List) diff.ListSnapshot {
	return diff.ListSnapshot{Title: list.Title, Position: list.Position}
}
