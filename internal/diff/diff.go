// Package diff classifies entity mutations. Given a pre-mutation snapshot
// and the post-mutation state it decides whether the change is user-visible
// at all, and if so produces the one human-readable action description the
// activity log should carry. When several fields changed at once the rules
// pick the most specific true statement, in a fixed priority order.
package diff

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// positionTolerance absorbs floating-point jitter in fractional ordering
// keys: differences at or below it never count as a reorder.
const positionTolerance = 1e-4

// Change is the classification outcome.
type Change int

const (
	// Noise means no user-visible difference; the caller must not create an
	// activity record for it.
	Noise Change = iota
	Created
	Updated
)

func (c Change) String() string {
	switch c {
	case Noise:
		return "noise"
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return fmt.Sprintf("Change(%d)", int(c))
	}
}

// TaskSnapshot is a point-in-time copy of a task's mutable fields.
// ListTitle is the title of the containing list at snapshot time, used for
// the "moved to" and "reordered in" descriptions.
type TaskSnapshot struct {
	Title       string
	Description string
	ListID      uuid.UUID
	ListTitle   string
	Position    float64
	DueDate     *time.Time
	Assignees   map[uuid.UUID]string
}

// ListSnapshot is a point-in-time copy of a list's mutable fields.
type ListSnapshot struct {
	Title    string
	Position float64
}

// FieldSet reports which snapshot fields differ, for callers that need the
// typed delta rather than the prose.
type FieldSet struct {
	List        bool
	Assignees   bool
	Position    bool
	Title       bool
	Description bool
	DueDate     bool
}

// Result of a classification.
type Result struct {
	Change      Change
	Description string
	Fields      FieldSet
	// Added and Removed hold assignee usernames, sorted, when Fields.Assignees.
	Added   []string
	Removed []string
}

// ClassifyTask applies the tie-break rules to a task mutation. A nil before
// snapshot means the task was just created. Due-date changes alone do not
// produce a log entry.
func ClassifyTask(before *TaskSnapshot, after TaskSnapshot) Result {
	if before == nil {
		return Result{
			Change:      Created,
			Description: fmt.Sprintf("created task '%s'", after.Title),
		}
	}

	added, removed := assigneeDelta(before.Assignees, after.Assignees)

	fields := FieldSet{
		List:        before.ListID != after.ListID,
		Assignees:   len(added) > 0 || len(removed) > 0,
		Position:    math.Abs(before.Position-after.Position) > positionTolerance,
		Title:       before.Title != after.Title,
		Description: before.Description != after.Description,
		DueDate:     !equalTime(before.DueDate, after.DueDate),
	}
	res := Result{Fields: fields, Added: added, Removed: removed}

	textChanged := fields.Title || fields.Description

	switch {
	case fields.List:
		res.Change = Updated
		res.Description = fmt.Sprintf("moved task '%s' to '%s'", after.Title, after.ListTitle)
	case fields.Assignees:
		res.Change = Updated
		switch {
		case len(removed) == 0:
			res.Description = fmt.Sprintf("assigned task '%s' to %s", after.Title, strings.Join(added, ", "))
		case len(added) == 0:
			res.Description = fmt.Sprintf("unassigned %s from task '%s'", strings.Join(removed, ", "), after.Title)
		default:
			res.Description = fmt.Sprintf("updated assignments for task '%s'", after.Title)
		}
	case fields.Position && !textChanged:
		res.Change = Updated
		res.Description = fmt.Sprintf("reordered task '%s' in '%s'", after.Title, after.ListTitle)
	case textChanged:
		res.Change = Updated
		res.Description = fmt.Sprintf("updated task '%s'", after.Title)
	default:
		res.Change = Noise
	}
	return res
}

// ClassifyList applies the same rules to a list mutation; lists only carry a
// title and a position.
func ClassifyList(before *ListSnapshot, after ListSnapshot) Result {
	if before == nil {
		return Result{
			Change:      Created,
			Description: fmt.Sprintf("created list '%s'", after.Title),
		}
	}

	fields := FieldSet{
		Position: math.Abs(before.Position-after.Position) > positionTolerance,
		Title:    before.Title != after.Title,
	}
	res := Result{Fields: fields}

	switch {
	case fields.Position && !fields.Title:
		res.Change = Updated
		res.Description = fmt.Sprintf("reordered list '%s'", after.Title)
	case fields.Title:
		res.Change = Updated
		res.Description = fmt.Sprintf("updated list '%s'", after.Title)
	default:
		res.Change = Noise
	}
	return res
}

// assigneeDelta returns the sorted usernames added to and removed from the
// assignment set (symmetric difference, keyed by user ID).
func assigneeDelta(before, after map[uuid.UUID]string) (added, removed []string) {
	for id, name := range after {
		if _, ok := before[id]; !ok {
			added = append(added, name)
		}
	}
	for id, name := range before {
		if _, ok := after[id]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
