// Package domain defines the core domain models for the record store.
//
// Domain models are pure values and entities without any IO
// dependencies. This package contains:
//
//   - Value: JSON value kinds, normalization, equality and rendering
//   - Record and Snapshot: identified attribute sets and their detached views
//   - Schema: the per-collection attribute type registry
//   - ChangeEvent and StructureChange: the session journal entries
//   - Errors: record store error codes
package domain
