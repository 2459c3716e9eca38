package diff

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func baseTask() TaskSnapshot {
	return TaskSnapshot{
		Title:       "Write report",
		Description: "Quarterly numbers",
		ListID:      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		ListTitle:   "To Do",
		Position:    1.5,
		Assignees:   map[uuid.UUID]string{},
	}
}

func TestClassifyTask_Created(t *testing.T) {
	res := ClassifyTask(nil, TaskSnapshot{Title: "Write report"})

	assert.Equal(t, Created, res.Change)
	assert.Equal(t, "created task 'Write report'", res.Description)
}

func TestClassifyTask_Moved(t *testing.T) {
	before := baseTask()
	after := baseTask()
	after.ListID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	after.ListTitle = "Done"

	res := ClassifyTask(&before, after)

	assert.Equal(t, Updated, res.Change)
	assert.Equal(t, "moved task 'Write report' to 'Done'", res.Description)
	assert.True(t, res.Fields.List)
}

func TestClassifyTask_MovedBeatsEverything(t *testing.T) {
	// A move wins even when title, position and assignees changed too.
	before := baseTask()
	after := baseTask()
	after.ListID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	after.ListTitle = "Done"
	after.Title = "Write final report"
	after.Position = 9.0
	after.Assignees = map[uuid.UUID]string{uuid.New(): "alice"}

	res := ClassifyTask(&before, after)

	assert.Equal(t, "moved task 'Write final report' to 'Done'", res.Description)
}

func TestClassifyTask_Assigned(t *testing.T) {
	aliceID := uuid.New()
	bobID := uuid.New()

	before := baseTask()
	after := baseTask()
	after.Assignees = map[uuid.UUID]string{bobID: "bob", aliceID: "alice"}

	res := ClassifyTask(&before, after)

	assert.Equal(t, Updated, res.Change)
	assert.Equal(t, "assigned task 'Write report' to alice, bob", res.Description)
	assert.Equal(t, []string{"alice", "bob"}, res.Added)
	assert.Empty(t, res.Removed)
}

func TestClassifyTask_Unassigned(t *testing.T) {
	aliceID := uuid.New()

	before := baseTask()
	before.Assignees = map[uuid.UUID]string{aliceID: "alice"}
	after := baseTask()

	res := ClassifyTask(&before, after)

	assert.Equal(t, "unassigned alice from task 'Write report'", res.Description)
}

func TestClassifyTask_MixedAssignmentDelta(t *testing.T) {
	aliceID := uuid.New()
	bobID := uuid.New()

	before := baseTask()
	before.Assignees = map[uuid.UUID]string{aliceID: "alice"}
	after := baseTask()
	after.Assignees = map[uuid.UUID]string{bobID: "bob"}

	res := ClassifyTask(&before, after)

	assert.Equal(t, "updated assignments for task 'Write report'", res.Description)
	assert.Equal(t, []string{"bob"}, res.Added)
	assert.Equal(t, []string{"alice"}, res.Removed)
}

func TestClassifyTask_AssignmentRename_IsNotADelta(t *testing.T) {
	// Same user ID with a different username is not an assignment change.
	id := uuid.New()

	before := baseTask()
	before.Assignees = map[uuid.UUID]string{id: "alice"}
	after := baseTask()
	after.Assignees = map[uuid.UUID]string{id: "alice_renamed"}

	res := ClassifyTask(&before, after)

	assert.Equal(t, Noise, res.Change)
}

func TestClassifyTask_Reordered(t *testing.T) {
	before := baseTask()
	after := baseTask()
	after.Position = 3.25

	res := ClassifyTask(&before, after)

	assert.Equal(t, Updated, res.Change)
	assert.Equal(t, "reordered task 'Write report' in 'To Do'", res.Description)
}

func TestClassifyTask_PositionWithinTolerance_IsNoise(t *testing.T) {
	before := baseTask()
	after := baseTask()
	after.Position = before.Position + positionTolerance

	res := ClassifyTask(&before, after)

	assert.Equal(t, Noise, res.Change)
	assert.False(t, res.Fields.Position)
}

func TestClassifyTask_TextChangeSuppressesReorder(t *testing.T) {
	// When the title changed too, the position shift is incidental drag
	// noise and the change reads as a content update.
	before := baseTask()
	after := baseTask()
	after.Position = 7.0
	after.Title = "Write final report"

	res := ClassifyTask(&before, after)

	assert.Equal(t, "updated task 'Write final report'", res.Description)
	assert.True(t, res.Fields.Position)
}

func TestClassifyTask_DescriptionChange(t *testing.T) {
	before := baseTask()
	after := baseTask()
	after.Description = "Quarterly numbers and forecast"

	res := ClassifyTask(&before, after)

	assert.Equal(t, Updated, res.Change)
	assert.Equal(t, "updated task 'Write report'", res.Description)
}

func TestClassifyTask_DueDateOnly_IsNoise(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	before := baseTask()
	after := baseTask()
	after.DueDate = &due

	res := ClassifyTask(&before, after)

	assert.Equal(t, Noise, res.Change)
	assert.True(t, res.Fields.DueDate)
}

func TestClassifyTask_Identical_IsNoise(t *testing.T) {
	before := baseTask()
	res := ClassifyTask(&before, baseTask())

	assert.Equal(t, Noise, res.Change)
	assert.Empty(t, res.Description)
}

func TestClassifyTask_Idempotent(t *testing.T) {
	before := baseTask()
	after := baseTask()
	after.Position = 8.0

	first := ClassifyTask(&before, after)
	second := ClassifyTask(&before, after)

	assert.Equal(t, first, second)
}

func TestClassifyList_Created(t *testing.T) {
	res := ClassifyList(nil, ListSnapshot{Title: "Backlog"})

	assert.Equal(t, Created, res.Change)
	assert.Equal(t, "created list 'Backlog'", res.Description)
}

func TestClassifyList_Reordered(t *testing.T) {
	res := ClassifyList(&ListSnapshot{Title: "Backlog", Position: 1.0}, ListSnapshot{Title: "Backlog", Position: 2.0})

	assert.Equal(t, Updated, res.Change)
	assert.Equal(t, "reordered list 'Backlog'", res.Description)
}

func TestClassifyList_TitleBeatsReorder(t *testing.T) {
	res := ClassifyList(&ListSnapshot{Title: "Backlog", Position: 1.0}, ListSnapshot{Title: "Icebox", Position: 2.0})

	assert.Equal(t, "updated list 'Icebox'", res.Description)
}

func TestClassifyList_PositionWithinTolerance_IsNoise(t *testing.T) {
	res := ClassifyList(&ListSnapshot{Title: "Backlog", Position: 1.0}, ListSnapshot{Title: "Backlog", Position: 1.0 + positionTolerance})

	assert.Equal(t, Noise, res.Change)
}
