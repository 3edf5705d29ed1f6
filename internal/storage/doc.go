// Package storage provides the record store engine.
//
// The engine combines the in-memory store, the session change journal
// and the snapshot manager into the object a host application opens,
// uses and closes.
//
// Architecture:
//
//   - Memory Store: collections, schemas, id allocation
//   - Tracker: content and structure journal of the session
//   - Snapshot: JSON snapshots for persistence and undo
//
// Lifecycle:
//
//  1. Open loads the latest snapshot without journaling it
//  2. Mutations go through Collection handles and are journaled
//  3. Persist writes a snapshot; Undo discards the latest one
//  4. Close persists unsaved changes and reports the session
//
// With wraps Open and Close so persistence runs on every exit path.
package storage
