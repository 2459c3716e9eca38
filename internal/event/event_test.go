package event

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, e Event) map[string]any {
	t.Helper()
	data, err := Encode(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestEncode_PresentUsers(t *testing.T) {
	m := decode(t, PresentUsers{Users: []string{"ana", "luis"}})

	assert.Equal(t, "present_users", m["type"])
	assert.Equal(t, []any{"ana", "luis"}, m["users"])
}

func TestEncode_PresentUsers_EmptyIsArrayNotNull(t *testing.T) {
	data, err := Encode(PresentUsers{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"present_users","users":[]}`, string(data))
}

func TestEncode_UserJoined(t *testing.T) {
	m := decode(t, UserJoined{User: "ana"})

	assert.Equal(t, "user_joined", m["type"])
	assert.Equal(t, "ana", m["user"])
	assert.Equal(t, "ana se ha unido al tablero", m["message"])
}

func TestEncode_UserLeft(t *testing.T) {
	m := decode(t, UserLeft{User: "ana"})

	assert.Equal(t, "user_left", m["type"])
	assert.Equal(t, "ana ha salido del tablero", m["message"])
}

func TestEncode_TaskCreated(t *testing.T) {
	taskID := uuid.New()
	m := decode(t, TaskCreated{Task: TaskPayload{ID: taskID, Title: "Write report", Priority: "high"}})

	assert.Equal(t, "task_created", m["type"])
	task := m["task"].(map[string]any)
	assert.Equal(t, taskID.String(), task["id"])
	assert.Equal(t, "Write report", task["title"])
	assert.Equal(t, "high", task["priority"])
	assert.Nil(t, task["due_date"])
}

func TestEncode_TaskDeleted(t *testing.T) {
	taskID := uuid.New()
	m := decode(t, TaskDeleted{TaskID: taskID})

	assert.Equal(t, "task_deleted", m["type"])
	assert.Equal(t, taskID.String(), m["task_id"])
}

func TestEncode_BoardUpdated(t *testing.T) {
	boardID := uuid.New()
	m := decode(t, BoardUpdated{Board: BoardPayload{ID: boardID, Name: "Sprint", Description: "Q1 work"}})

	assert.Equal(t, "board_updated", m["type"])
	board := m["board"].(map[string]any)
	assert.Equal(t, boardID.String(), board["id"])
	assert.Equal(t, "Sprint", board["name"])
	assert.Equal(t, "Q1 work", board["description"])
}

func TestEncode_MemberAdded(t *testing.T) {
	userID := uuid.New()
	m := decode(t, MemberAdded{Member: MemberPayload{ID: userID, Username: "ana", Email: "ana@example.com", Role: "member"}})

	assert.Equal(t, "member_added", m["type"])
	member := m["member"].(map[string]any)
	assert.Equal(t, "ana", member["username"])
	assert.Equal(t, "member", member["role"])
}

func TestEncode_Relayed_UsesClientType(t *testing.T) {
	raw := json.RawMessage(`{"type":"cursor","x":3}`)
	m := decode(t, Relayed{Type: "cursor", Data: raw, User: "ana"})

	assert.Equal(t, "cursor", m["type"])
	assert.Equal(t, "ana", m["user"])
	assert.Equal(t, float64(3), m["data"].(map[string]any)["x"])
}

func TestEncode_ErrorReply(t *testing.T) {
	m := decode(t, ErrorReply{Message: ErrMalformedMessage})

	assert.Equal(t, "error", m["type"])
	assert.Equal(t, "Formato de mensaje inválido", m["message"])
}

func TestName_CoversAllVariants(t *testing.T) {
	cases := map[string]Event{
		"present_users": PresentUsers{},
		"user_joined":   UserJoined{},
		"user_left":     UserLeft{},
		"task_created":  TaskCreated{},
		"task_updated":  TaskUpdated{},
		"task_deleted":  TaskDeleted{},
		"list_created":  ListCreated{},
		"list_updated":  ListUpdated{},
		"board_updated": BoardUpdated{},
		"member_added":  MemberAdded{},
		"relay":         Relayed{},
		"error":         ErrorReply{},
	}
	for want, e := range cases {
		assert.Equal(t, want, Name(e))
	}
}
