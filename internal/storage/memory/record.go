package memory

import (
	"fmt"

	"github.com/yndnr/records-go/internal/core/domain"
)

// Record is a live handle to a stored record. Reads always observe the
// current stored state; writes go through the store's validation.
type Record struct {
	store      *Store
	collection string
	id         int64
}

// ID returns the record id.
func (r *Record) ID() int64 {
	return r.id
}

// Collection returns the name of the collection holding the record.
func (r *Record) Collection() string {
	return r.collection
}

// Get returns the current value of an attribute. "id" reports the record
// id. A deleted record has no attributes.
func (r *Record) Get(attribute string) (any, bool) {
	snap, ok := r.store.Snapshot(r.collection, r.id)
	if !ok {
		return nil, false
	}
	v, ok := snap.Get(attribute)
	return v, ok
}

// Attributes returns the assigned attribute names in assignment order,
// without "id".
func (r *Record) Attributes() []string {
	snap, ok := r.store.Snapshot(r.collection, r.id)
	if !ok {
		return nil
	}
	return snap.Keys()
}

// Set assigns an attribute. See Store.Set.
func (r *Record) Set(attribute string, value any) error {
	return r.store.Set(r.collection, r.id, attribute, value)
}

// Snapshot returns a detached copy of the record's current state.
func (r *Record) Snapshot() (domain.Snapshot, bool) {
	return r.store.Snapshot(r.collection, r.id)
}

// Delete removes the record from its collection.
func (r *Record) Delete() bool {
	return r.store.Delete(r.collection, r.id)
}

// String returns "collection(id=N)".
func (r *Record) String() string {
	return fmt.Sprintf("%s(id=%d)", r.collection, r.id)
}
