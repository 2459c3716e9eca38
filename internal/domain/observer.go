package domain

import "context"

// MutationObserver is the narrow hook the storage layer calls synchronously
// after persisting a change. It is how entity mutations become activity log
// entries and broadcast events without the repositories knowing about either.
//
// Implementations must not fail the save: errors are theirs to absorb.
type MutationObserver interface {
	BoardSaved(ctx context.Context, board *Board, created bool)
	BoardDeleted(ctx context.Context, board *Board)
	ListSaved(ctx context.Context, list *List, created bool)
	TaskSaved(ctx context.Context, task *Task, created bool)
	TaskDeleted(ctx context.Context, task *Task)
	MemberAdded(ctx context.Context, member *BoardMember)
}

// NopObserver ignores every mutation. Useful for tools and tests.
type NopObserver struct{}

func (NopObserver) BoardSaved(context.Context, *Board, bool)  {}
func (NopObserver) BoardDeleted(context.Context, *Board)      {}
func (NopObserver) ListSaved(context.Context, *List, bool)    {}
func (NopObserver) TaskSaved(context.Context, *Task, bool)    {}
func (NopObserver) TaskDeleted(context.Context, *Task)        {}
func (NopObserver) MemberAdded(context.Context, *BoardMember) {}
