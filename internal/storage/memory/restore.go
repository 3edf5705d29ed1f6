package memory

import (
	"fmt"

	"github.com/yndnr/records-go/internal/core/domain"
)

// Restore replaces the store content with states.
//
// Record ids are kept as given and each collection's id counter resumes
// after its largest id. Schemas are rebuilt from the values in record
// order, so a value conflicting with an earlier one of the same attribute
// fails the restore. No events reach the recorder. On error the store is
// left unchanged.
func (s *Store) Restore(states []domain.CollectionState) error {
	collections := make(map[string]*collection, len(states))
	order := make([]string, 0, len(states))

	for _, st := range states {
		if err := validateCollectionName(st.Name); err != nil {
			return err
		}
		if _, dup := collections[st.Name]; dup {
			return domain.ErrInvalidCollection.WithDetails(fmt.Sprintf("collection %q given twice", st.Name))
		}

		c := newCollection(st.Name)
		for _, snap := range st.Records {
			if snap.ID < 0 {
				return domain.ErrStorageError.WithDetails(fmt.Sprintf("%s: negative record id %d", st.Name, snap.ID))
			}
			if _, dup := c.byID[snap.ID]; dup {
				return domain.ErrStorageError.WithDetails(fmt.Sprintf("%s: duplicate record id %d", st.Name, snap.ID))
			}

			rec := domain.NewRecord(snap.ID)
			if snap.Attributes != nil {
				for pair := snap.Attributes.Oldest(); pair != nil; pair = pair.Next() {
					v, err := c.schema.Validate(pair.Key, pair.Value)
					if err != nil {
						return err
					}
					c.schema.RegisterIfNew(pair.Key, v)
					rec.Attrs.Set(pair.Key, v)
				}
			}

			c.records = append(c.records, rec)
			c.byID[rec.ID] = rec
			if rec.ID >= c.nextID {
				c.nextID = rec.ID + 1
			}
		}

		collections[st.Name] = c
		order = append(order, st.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = collections
	s.order = order
	return nil
}

// Reset removes every collection and schema.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = make(map[string]*collection)
	s.order = nil
}
