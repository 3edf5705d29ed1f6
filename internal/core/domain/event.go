package domain

// Action is the kind of a content change.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change is the old and new value of one attribute.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeEvent is one entry of the content journal.
//
// Exactly one payload is set, depending on Action:
//   - add: Attributes holds the full initial attribute set
//   - update: Attribute and Change describe the single assignment
//   - delete: Removed holds the record as it was before deletion
type ChangeEvent struct {
	Action     Action
	Collection string
	RecordID   int64

	Attributes *Attributes
	Attribute  string
	Change     Change
	Removed    Snapshot
}

// Key returns the (collection, id) pair the event applies to.
func (e ChangeEvent) Key() RecordKey {
	return RecordKey{Collection: e.Collection, ID: e.RecordID}
}

// RecordKey identifies a record across collections.
type RecordKey struct {
	Collection string
	ID         int64
}

// StructureChange records the first typing of an attribute in a collection.
type StructureChange struct {
	Collection string
	Attribute  string
	Type       ValueType
}
