// Package event defines the closed set of messages a board group can carry
// and their wire encoding. Everything a client receives over a board
// WebSocket is one of these variants.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the marker interface for the board event variants.
type Event interface{ isEvent() }

type baseEvent struct{}

func (baseEvent) isEvent() {}

// TaskPayload is the task snapshot carried by task events.
type TaskPayload struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ListID      uuid.UUID  `json:"list_id"`
	Position    float64    `json:"position"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
}

// ListPayload is the list snapshot carried by list events.
type ListPayload struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	BoardID  uuid.UUID `json:"board_id"`
	Position float64   `json:"position"`
}

// BoardPayload is the board snapshot carried by board events.
type BoardPayload struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// MemberPayload describes a board membership.
type MemberPayload struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

// PresentUsers is sent to a joining session only: the distinct usernames
// currently present on the board, including the joiner.
type PresentUsers struct {
	baseEvent
	Users []string
}

// UserJoined announces a username's first session on the board.
type UserJoined struct {
	baseEvent
	User string
}

// UserLeft announces that a username's last session left the board.
type UserLeft struct {
	baseEvent
	User string
}

// TaskCreated / TaskUpdated carry the post-mutation task snapshot.
type TaskCreated struct {
	baseEvent
	Task TaskPayload
}

type TaskUpdated struct {
	baseEvent
	Task TaskPayload
}

// TaskDeleted carries only the removed task's ID.
type TaskDeleted struct {
	baseEvent
	TaskID uuid.UUID
}

type ListCreated struct {
	baseEvent
	List ListPayload
}

type ListUpdated struct {
	baseEvent
	List ListPayload
}

// BoardUpdated carries the post-mutation board snapshot. Board creation is
// never broadcast: no group exists before the board does.
type BoardUpdated struct {
	baseEvent
	Board BoardPayload
}

// MemberAdded announces a new board membership.
type MemberAdded struct {
	baseEvent
	Member MemberPayload
}

// Relayed wraps an arbitrary client payload echoed to the whole group,
// tagged with the sender. User is "Anónimo" for unauthenticated senders.
type Relayed struct {
	baseEvent
	Type string
	Data json.RawMessage
	User string
}

// ErrorReply is sent to a single session, never broadcast.
type ErrorReply struct {
	baseEvent
	Message string
}

// ErrMalformedMessage is the reply for client payloads that fail to parse.
const ErrMalformedMessage = "Formato de mensaje inválido"

// Name returns the wire "type" tag of an event, used for logging and
// metrics labels. Relayed events report the generic "relay" kind rather
// than the client-chosen tag.
func Name(e Event) string {
	switch e.(type) {
	case PresentUsers:
		return "present_users"
	case UserJoined:
		return "user_joined"
	case UserLeft:
		return "user_left"
	case TaskCreated:
		return "task_created"
	case TaskUpdated:
		return "task_updated"
	case TaskDeleted:
		return "task_deleted"
	case ListCreated:
		return "list_created"
	case ListUpdated:
		return "list_updated"
	case BoardUpdated:
		return "board_updated"
	case MemberAdded:
		return "member_added"
	case Relayed:
		return "relay"
	case ErrorReply:
		return "error"
	default:
		return "unknown"
	}
}

// Encode renders an event to its wire JSON. Unknown variants are an error:
// the event set is closed and a new variant must be added here explicitly.
func Encode(e Event) ([]byte, error) {
	switch v := e.(type) {
	case PresentUsers:
		users := v.Users
		if users == nil {
			users = []string{}
		}
		return json.Marshal(struct {
			Type  string   `json:"type"`
			Users []string `json:"users"`
		}{"present_users", users})
	case UserJoined:
		return json.Marshal(struct {
			Type    string `json:"type"`
			User    string `json:"user"`
			Message string `json:"message"`
		}{"user_joined", v.User, fmt.Sprintf("%s se ha unido al tablero", v.User)})
	case UserLeft:
		return json.Marshal(struct {
			Type    string `json:"type"`
			User    string `json:"user"`
			Message string `json:"message"`
		}{"user_left", v.User, fmt.Sprintf("%s ha salido del tablero", v.User)})
	case TaskCreated:
		return json.Marshal(struct {
			Type string      `json:"type"`
			Task TaskPayload `json:"task"`
		}{"task_created", v.Task})
	case TaskUpdated:
		return json.Marshal(struct {
			Type string      `json:"type"`
			Task TaskPayload `json:"task"`
		}{"task_updated", v.Task})
	case TaskDeleted:
		return json.Marshal(struct {
			Type   string    `json:"type"`
			TaskID uuid.UUID `json:"task_id"`
		}{"task_deleted", v.TaskID})
	case ListCreated:
		return json.Marshal(struct {
			Type string      `json:"type"`
			List ListPayload `json:"list"`
		}{"list_created", v.List})
	case ListUpdated:
		return json.Marshal(struct {
			Type string      `json:"type"`
			List ListPayload `json:"list"`
		}{"list_updated", v.List})
	case BoardUpdated:
		return json.Marshal(struct {
			Type  string       `json:"type"`
			Board BoardPayload `json:"board"`
		}{"board_updated", v.Board})
	case MemberAdded:
		return json.Marshal(struct {
			Type   string        `json:"type"`
			Member MemberPayload `json:"member"`
		}{"member_added", v.Member})
	case Relayed:
		return json.Marshal(struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
			User string          `json:"user"`
		}{v.Type, v.Data, v.User})
	case ErrorReply:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{"error", v.Message})
	default:
		return nil, fmt.Errorf("unknown event kind %T", e)
	}
}
