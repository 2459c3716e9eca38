package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablerolabs/tablero/internal/domain"
)

func (f *crudFixture) createBoard(t *testing.T, name string) uuid.UUID {
	t.Helper()
	rec := f.request(t, http.MethodPost, "/api/boards", map[string]string{
		"name": name, "description": "Q1 work",
	}, f.token)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return uuid.MustParse(resp.ID)
}

func TestCreateBoard_WritesOwnerAttributedRecord(t *testing.T) {
	f := newCrudFixture(t)

	f.createBoard(t, "Backlog")

	require.Len(t, f.records.records, 1)
	rec := f.records.records[0]
	require.NotNil(t, rec.ActorID, "board records carry the owner from the row")
	assert.Equal(t, f.actorID, *rec.ActorID)
	assert.Equal(t, "Board 'Backlog' created", rec.Action)
	assert.Equal(t, domain.KindBoard, rec.EntityKind)
}

func TestCreateBoard_AddsCreatorAsAdmin(t *testing.T) {
	f := newCrudFixture(t)

	boardID := f.createBoard(t, "Backlog")

	require.Len(t, f.members.added, 1)
	assert.Equal(t, boardID, f.members.added[0].boardID)
	assert.Equal(t, f.actorID, f.members.added[0].userID)
	assert.Equal(t, domain.RoleAdmin, f.members.added[0].role)
}

func TestUpdateBoard_WritesRecord(t *testing.T) {
	f := newCrudFixture(t)
	boardID := f.createBoard(t, "Backlog")

	rec := f.request(t, http.MethodPut, "/api/boards/"+boardID.String(), map[string]string{
		"name": "Backlog Q2",
	}, f.token)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.records.records, 2)
	latest := f.records.records[1]
	require.NotNil(t, latest.ActorID)
	assert.Equal(t, f.actorID, *latest.ActorID)
	assert.Equal(t, "Board 'Backlog Q2' updated", latest.Action)
}

func TestDeleteBoard_WritesOwnerAttributedRecord(t *testing.T) {
	f := newCrudFixture(t)
	boardID := f.createBoard(t, "Backlog")

	rec := f.request(t, http.MethodDelete, "/api/boards/"+boardID.String(), nil, f.token)
	require.Equal(t, http.StatusNoContent, rec.Code)

	latest := f.records.records[len(f.records.records)-1]
	require.NotNil(t, latest.ActorID)
	assert.Equal(t, f.actorID, *latest.ActorID)
	assert.Equal(t, "Board 'Backlog' deleted", latest.Action)
	assert.Equal(t, domain.KindBoard, latest.EntityKind)
}

func TestDeleteBoard_NotFound(t *testing.T) {
	f := newCrudFixture(t)

	rec := f.request(t, http.MethodDelete, "/api/boards/"+uuid.NewString(), nil, f.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
