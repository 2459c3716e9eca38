// Package activity turns persisted entity mutations into attributed,
// deduplicated activity log entries and broadcast events.
//
// Two writers cooperate on every logical mutation. The Recorder runs inside
// the storage layer's mutation hook: it knows what changed but not who
// changed it, so it writes a provisional record (nil actor, best-effort
// description) and publishes the mutation event. The Attributor runs in the
// request handler that owns the mutation: it holds the authoritative
// pre-mutation snapshot and the authenticated actor, recomputes the diff,
// and either patches the provisional record or deletes it when the change
// turns out to be noise. Deletions are recorded by the Attributor alone,
// fully attributed, because the row is gone before any hook could inspect
// it.
package activity
