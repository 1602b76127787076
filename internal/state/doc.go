// Package state holds the mutable side of a build run: which in-scope
// packages are still pending and which ids are already satisfied.
//
// The workspace.Graph it is created from stays read-only; ExecutionState is
// owned by a single scheduler for the lifetime of one run and is discarded
// afterwards. It is not safe for concurrent use and needs no locking, since
// the scheduler is the only writer.
//
// # Invariants
//
//   - pending and compiled are disjoint at all times.
//   - External packages start out compiled and are never pending.
//   - A package leaves pending exactly once, through MarkCompiled.
package state
