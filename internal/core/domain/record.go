package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// IDAttribute is the reserved attribute name carrying a record's id in
// flattened and serialized form.
const IDAttribute = "id"

// Attributes maps attribute names to normalized values, preserving the
// order in which attributes were first assigned.
type Attributes = orderedmap.OrderedMap[string, any]

// NewAttributes creates an empty attribute set.
func NewAttributes() *Attributes {
	return orderedmap.New[string, any]()
}

// CloneAttributes returns a deep copy of attrs. A nil set clones to an
// empty one.
func CloneAttributes(attrs *Attributes) *Attributes {
	out := NewAttributes()
	if attrs == nil {
		return out
	}
	for pair := attrs.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, CloneValue(pair.Value))
	}
	return out
}

// Record is a stored entity: an id plus its attributes.
type Record struct {
	ID    int64
	Attrs *Attributes
}

// NewRecord creates a record with no attributes.
func NewRecord(id int64) *Record {
	return &Record{ID: id, Attrs: NewAttributes()}
}

// Get returns the value of an attribute. Unassigned attributes report
// false.
func (r *Record) Get(name string) (any, bool) {
	return r.Attrs.Get(name)
}

// Snapshot returns a detached deep copy of the record.
func (r *Record) Snapshot() Snapshot {
	return Snapshot{ID: r.ID, Attributes: CloneAttributes(r.Attrs)}
}

// Snapshot is a detached view of a record. It serializes as one flat JSON
// object holding "id" followed by the attributes in assignment order.
type Snapshot struct {
	ID         int64
	Attributes *Attributes
}

// Get returns the value of an attribute, or the id for "id".
func (s Snapshot) Get(name string) (any, bool) {
	if name == IDAttribute {
		return s.ID, true
	}
	if s.Attributes == nil {
		return nil, false
	}
	return s.Attributes.Get(name)
}

// Keys returns the attribute names in assignment order, without "id".
func (s Snapshot) Keys() []string {
	if s.Attributes == nil {
		return nil
	}
	keys := make([]string, 0, s.Attributes.Len())
	for pair := s.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Flatten returns the record as a plain map including "id".
func (s Snapshot) Flatten() map[string]any {
	out := make(map[string]any, 1+s.len())
	out[IDAttribute] = s.ID
	if s.Attributes != nil {
		for pair := s.Attributes.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = CloneValue(pair.Value)
		}
	}
	return out
}

func (s Snapshot) len() int {
	if s.Attributes == nil {
		return 0
	}
	return s.Attributes.Len()
}

// MarshalJSON implements json.Marshaler.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	fmt.Fprintf(&buf, "%q:%d", IDAttribute, s.ID)
	if s.Attributes != nil {
		for pair := s.Attributes.Oldest(); pair != nil; pair = pair.Next() {
			key, err := json.Marshal(pair.Key)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("marshal attribute %q: %w", pair.Key, err)
			}
			buf.WriteByte(',')
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Attribute order is preserved
// and every value is normalized; a missing or non-integer "id" is an error.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return err
	}

	attrs := NewAttributes()
	hasID := false
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		var v any
		dec := json.NewDecoder(bytes.NewReader(pair.Value))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode attribute %q: %w", pair.Key, err)
		}
		n, err := Normalize(v)
		if err != nil {
			return fmt.Errorf("decode attribute %q: %w", pair.Key, err)
		}

		if pair.Key == IDAttribute {
			id, ok := n.(int64)
			if !ok {
				return fmt.Errorf("record id must be an integer, got %s", Render(n))
			}
			s.ID = id
			hasID = true
			continue
		}
		attrs.Set(pair.Key, n)
	}
	if !hasID {
		return fmt.Errorf("record is missing %q", IDAttribute)
	}

	s.Attributes = attrs
	return nil
}

// Field is one named value of a record being created.
type Field struct {
	Name  string
	Value any
}

// F is shorthand for constructing a Field.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// CollectionState is the full content of one collection in insertion
// order.
type CollectionState struct {
	Name    string
	Records []Snapshot
}
