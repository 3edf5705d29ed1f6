package storage

import (
	"github.com/yndnr/records-go/internal/core/domain"
	"github.com/yndnr/records-go/internal/storage/memory"
)

// Collection is the access surface of one named collection.
type Collection interface {
	Name() string

	// Create validates fields and stores a new record with the next id.
	Create(fields ...domain.Field) (*memory.Record, error)

	// Get returns a live handle, or false if no such record exists.
	Get(id int64) (*memory.Record, bool)

	// List returns detached copies of all records in insertion order.
	List() []domain.Snapshot

	// Delete removes a record and reports whether it existed.
	Delete(id int64) bool

	Count() int

	// Filter returns the listed records for which keep returns true.
	Filter(keep func(domain.Snapshot) bool) []domain.Snapshot
}

type collection struct {
	name  string
	store *memory.Store
}

func (c *collection) Name() string {
	return c.name
}

func (c *collection) Create(fields ...domain.Field) (*memory.Record, error) {
	return c.store.Create(c.name, fields)
}

func (c *collection) Get(id int64) (*memory.Record, bool) {
	return c.store.Get(c.name, id)
}

func (c *collection) List() []domain.Snapshot {
	return c.store.List(c.name)
}

func (c *collection) Delete(id int64) bool {
	return c.store.Delete(c.name, id)
}

func (c *collection) Count() int {
	return c.store.Count(c.name)
}

func (c *collection) Filter(keep func(domain.Snapshot) bool) []domain.Snapshot {
	out := make([]domain.Snapshot, 0)
	for _, snap := range c.store.List(c.name) {
		if keep(snap) {
			out = append(out, snap)
		}
	}
	return out
}
