package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Board is a collaboration board owned by one user.
type Board struct {
	ID          uuid.UUID
	Name        string
	Description string
	OwnerID     uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Role of a board member.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// BoardMember links a user to a board with a role.
type BoardMember struct {
	ID       uuid.UUID
	BoardID  uuid.UUID
	UserID   uuid.UUID
	Username string
	Email    string
	Role     Role
	JoinedAt time.Time
}

// List is an ordered column within a board. Position is a fractional
// ordering key: inserting between two siblings never renumbers them.
type List struct {
	ID        uuid.UUID
	BoardID   uuid.UUID
	Title     string
	Position  float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task is a card within a list. Assignees maps user ID to username for the
// users currently assigned.
type Task struct {
	ID          uuid.UUID
	ListID      uuid.UUID
	Title       string
	Description string
	Position    float64
	DueDate     *time.Time
	Priority    Priority
	Assignees   map[uuid.UUID]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EntityKind identifies the kind of entity an activity record refers to.
type EntityKind string

const (
	KindBoard EntityKind = "board"
	KindList  EntityKind = "list"
	KindTask  EntityKind = "task"
)

// ActivityRecord is one entry in the activity log. ActorID is nil while the
// record is provisional (written by the persistence hook before the acting
// user is known).
type ActivityRecord struct {
	ID         uuid.UUID
	ActorID    *uuid.UUID
	ActorName  string
	Action     string
	EntityKind EntityKind
	EntityID   uuid.UUID
	Timestamp  time.Time
}

// Provisional reports whether the record has not been attributed yet.
func (r ActivityRecord) Provisional() bool {
	return r.ActorID == nil
}
