package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// BoardRepository stores boards.
type BoardRepository interface {
	Create(ctx context.Context, name, description string, ownerID uuid.UUID) (*Board, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	List(ctx context.Context) ([]*Board, error)
	Update(ctx context.Context, id uuid.UUID, name, description string) (*Board, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MemberRepository stores board memberships.
type MemberRepository interface {
	Add(ctx context.Context, boardID, userID uuid.UUID, role Role) (*BoardMember, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*BoardMember, error)
}

// ListRepository stores board lists. Create and Update fire the mutation
// observer synchronously after the row is persisted.
type ListRepository interface {
	Create(ctx context.Context, boardID uuid.UUID, title string, position float64) (*List, error)
	GetByID(ctx context.Context, id uuid.UUID) (*List, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*List, error)
	Update(ctx context.Context, id uuid.UUID, title string, position float64) (*List, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskUpdate carries the mutable fields of a task update. Assignees is the
// full replacement set of assigned user IDs.
type TaskUpdate struct {
	ListID      uuid.UUID
	Title       string
	Description string
	Position    float64
	DueDate     *time.Time
	Priority    Priority
	Assignees   []uuid.UUID
}

// TaskRepository stores tasks. Create and Update fire the mutation observer
// synchronously after the row is persisted; Delete fires it after removal.
type TaskRepository interface {
	Create(ctx context.Context, listID uuid.UUID, title, description string, position float64, priority Priority, assignees []uuid.UUID) (*Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByList(ctx context.Context, listID uuid.UUID) ([]*Task, error)
	Update(ctx context.Context, id uuid.UUID, upd TaskUpdate) (*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ActivityRepository stores the activity log. The newest-provisional queries
// serve the attribution pipeline: the persistence hook writes records with a
// nil actor, and the owning request handler later patches or deletes the most
// recent one for the entity it mutated.
type ActivityRepository interface {
	Insert(ctx context.Context, rec *ActivityRecord) error
	ListRecent(ctx context.Context, limit int) ([]*ActivityRecord, error)
	// AttributeNewestProvisional sets the actor and action on the most recent
	// nil-actor record for the entity. Returns ErrNotFound when none exists.
	AttributeNewestProvisional(ctx context.Context, kind EntityKind, entityID, actorID uuid.UUID, action string) error
	// DeleteNewestProvisional removes the most recent nil-actor record for the
	// entity. Returns ErrNotFound when none exists.
	DeleteNewestProvisional(ctx context.Context, kind EntityKind, entityID uuid.UUID) error
}
