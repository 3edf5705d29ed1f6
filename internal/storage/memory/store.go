package memory

import (
	"fmt"
	"sync"

	"github.com/yndnr/records-go/internal/core/domain"
)

// Recorder receives the effects of store operations.
//
// Track and TrackStructure are called after a mutation is committed, in
// operation order. Reject is called when an assignment fails validation;
// nothing was changed.
type Recorder interface {
	Track(ev domain.ChangeEvent)
	TrackStructure(c domain.StructureChange)
	Reject(collection, attribute string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Track(domain.ChangeEvent) {}
func (nopRecorder) TrackStructure(domain.StructureChange) {}
func (nopRecorder) Reject(string, string, error) {}

// collection is a named, insertion-ordered sequence of records sharing
// one schema.
type collection struct {
	name    string
	records []*domain.Record
	byID    map[int64]*domain.Record
	nextID  int64
	schema  *domain.Schema
}

func newCollection(name string) *collection {
	return &collection{
		name:   name,
		byID:   make(map[int64]*domain.Record),
		schema: domain.NewSchema(name),
	}
}

func (c *collection) remove(id int64) (*domain.Record, bool) {
	rec, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	delete(c.byID, id)
	for i, r := range c.records {
		if r.ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			break
		}
	}
	return rec, true
}

// Store owns the collections, allocates record ids and validates every
// attribute assignment against the collection schema.
type Store struct {
	collections map[string]*collection
	order       []string
	recorder    Recorder
	sealed      bool

	mu sync.RWMutex
}

// Option configures the Store.
type Option func(*Store)

// WithRecorder sets the receiver of change events.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]*collection),
		recorder:    nopRecorder{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// getOrCreate returns the named collection, creating it on first use.
// Caller must hold s.mu.
func (s *Store) getOrCreate(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = newCollection(name)
		s.collections[name] = c
		s.order = append(s.order, name)
	}
	return c
}

// Seal stops all further mutation. It waits for a mutation in progress
// to finish, so once Seal returns the recorder receives nothing more.
// Reads keep working.
func (s *Store) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
}

// Sealed reports whether Seal was called.
func (s *Store) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

func errSealed() error {
	return domain.ErrStorageError.WithDetails("store is closed")
}

func validateCollectionName(name string) error {
	if name == "" {
		return domain.ErrInvalidCollection.WithDetails("collection name is empty")
	}
	return nil
}

// Create validates fields, allocates the next id of the collection and
// appends a new record holding them.
//
// Every field is validated before anything is committed: a failed Create
// leaves the collection, its schema and its id counter untouched.
func (s *Store) Create(collectionName string, fields []domain.Field) (*Record, error) {
	if err := validateCollectionName(collectionName); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return nil, errSealed()
	}

	var schema *domain.Schema
	if c, ok := s.collections[collectionName]; ok {
		schema = c.schema
	} else {
		schema = domain.NewSchema(collectionName)
	}

	attrs := domain.NewAttributes()
	for _, f := range fields {
		if _, dup := attrs.Get(f.Name); dup {
			err := domain.ErrInvalidAttribute.WithDetails(fmt.Sprintf("attribute %q given twice", f.Name))
			s.recorder.Reject(collectionName, f.Name, err)
			return nil, err
		}
		v, err := schema.Validate(f.Name, f.Value)
		if err != nil {
			s.recorder.Reject(collectionName, f.Name, err)
			return nil, err
		}
		attrs.Set(f.Name, v)
	}

	c := s.getOrCreate(collectionName)
	rec := domain.NewRecord(c.nextID)
	c.nextID++

	var changes []domain.StructureChange
	for pair := attrs.Oldest(); pair != nil; pair = pair.Next() {
		if change, ok := c.schema.RegisterIfNew(pair.Key, pair.Value); ok {
			changes = append(changes, change)
		}
		rec.Attrs.Set(pair.Key, pair.Value)
	}
	c.records = append(c.records, rec)
	c.byID[rec.ID] = rec

	for _, change := range changes {
		s.recorder.TrackStructure(change)
	}
	s.recorder.Track(domain.ChangeEvent{
		Action:     domain.ActionAdd,
		Collection: collectionName,
		RecordID:   rec.ID,
		Attributes: domain.CloneAttributes(rec.Attrs),
	})

	return &Record{store: s, collection: collectionName, id: rec.ID}, nil
}

// Set assigns value to an attribute of a stored record.
//
// Assigning a value equal to the current one is a no-op and emits no
// event. So is assigning null to an attribute the record never had: the
// attribute stays absent from the record and from snapshots.
func (s *Store) Set(collectionName string, id int64, attribute string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return errSealed()
	}

	c, ok := s.collections[collectionName]
	if !ok {
		return domain.ErrRecordNotFound.WithDetails(fmt.Sprintf("%s(id=%d)", collectionName, id))
	}
	rec, ok := c.byID[id]
	if !ok {
		return domain.ErrRecordNotFound.WithDetails(fmt.Sprintf("%s(id=%d)", collectionName, id))
	}

	v, err := c.schema.Validate(attribute, value)
	if err != nil {
		s.recorder.Reject(collectionName, attribute, err)
		return err
	}

	old, present := rec.Attrs.Get(attribute)
	if domain.Equal(old, v) && (present || v == nil) {
		return nil
	}

	rec.Attrs.Set(attribute, v)
	if change, ok := c.schema.RegisterIfNew(attribute, v); ok {
		s.recorder.TrackStructure(change)
	}
	s.recorder.Track(domain.ChangeEvent{
		Action:     domain.ActionUpdate,
		Collection: collectionName,
		RecordID:   id,
		Attribute:  attribute,
		Change:     domain.Change{Old: domain.CloneValue(old), New: domain.CloneValue(v)},
	})
	return nil
}

// Get returns a handle to a stored record.
func (s *Store) Get(collectionName string, id int64) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionName]
	if !ok {
		return nil, false
	}
	if _, ok := c.byID[id]; !ok {
		return nil, false
	}
	return &Record{store: s, collection: collectionName, id: id}, true
}

// Snapshot returns a detached copy of a stored record.
func (s *Store) Snapshot(collectionName string, id int64) (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionName]
	if !ok {
		return domain.Snapshot{}, false
	}
	rec, ok := c.byID[id]
	if !ok {
		return domain.Snapshot{}, false
	}
	return rec.Snapshot(), true
}

// List returns detached copies of a collection's records in insertion
// order. An unknown collection yields an empty list.
func (s *Store) List(collectionName string) []domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionName]
	if !ok {
		return []domain.Snapshot{}
	}
	out := make([]domain.Snapshot, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec.Snapshot())
	}
	return out
}

// Delete removes a record. It reports whether a record was removed; a
// sealed store removes nothing.
func (s *Store) Delete(collectionName string, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return false
	}
	c, ok := s.collections[collectionName]
	if !ok {
		return false
	}
	rec, ok := c.remove(id)
	if !ok {
		return false
	}

	s.recorder.Track(domain.ChangeEvent{
		Action:     domain.ActionDelete,
		Collection: collectionName,
		RecordID:   id,
		Removed:    rec.Snapshot(),
	})
	return true
}

// Count returns the number of records in a collection.
func (s *Store) Count(collectionName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.collections[collectionName]; ok {
		return len(c.records)
	}
	return 0
}

// Collections returns the collection names in creation order.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// State returns every collection's records in collection creation order.
func (s *Store) State() []domain.CollectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CollectionState, 0, len(s.order))
	for _, name := range s.order {
		c := s.collections[name]
		records := make([]domain.Snapshot, 0, len(c.records))
		for _, rec := range c.records {
			records = append(records, rec.Snapshot())
		}
		out = append(out, domain.CollectionState{Name: name, Records: records})
	}
	return out
}

// Structure returns collection -> attribute -> type name for every
// collection, "id" included.
func (s *Store) Structure() map[string]map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]string, len(s.collections))
	for name, c := range s.collections {
		out[name] = c.schema.Types()
	}
	return out
}

// Schema returns the attribute names of a collection in registration
// order, "id" first. Unknown collections have no schema.
func (s *Store) Schema(collectionName string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionName]
	if !ok {
		return nil, false
	}
	return c.schema.Attributes(), true
}
