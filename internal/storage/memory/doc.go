// Package memory provides the in-memory record store.
//
// Records live in named collections, ordered by insertion. Each collection
// carries a schema that fixes the type of an attribute at its first
// non-null assignment and rejects later assignments of another type.
//
// Features:
//
//   - Id allocation: per collection, monotonically increasing, never reused
//   - Validation before commit: a rejected write changes nothing
//   - Change events: every committed write is reported to a Recorder
//
// Thread Safety:
//
// Operations take the store lock. Read operations use RLock, write
// operations use Lock. A Recorder is called with the lock held and must
// not call back into the store.
package memory
