package domain

// Schema is the type registry of one collection. It maps every attribute
// to the type of the first non-null value assigned to it. A recorded type
// never changes; null remains assignable to every attribute.
type Schema struct {
	collection string
	types      map[string]ValueType
	order      []string
}

// NewSchema creates an empty schema for a collection.
func NewSchema(collection string) *Schema {
	return &Schema{
		collection: collection,
		types:      make(map[string]ValueType),
	}
}

// Collection returns the name of the collection the schema belongs to.
func (s *Schema) Collection() string {
	return s.collection
}

// ValidateAttributeName rejects empty names and the reserved "id".
func ValidateAttributeName(name string) error {
	if name == "" {
		return ErrInvalidAttribute.WithDetails("attribute name is empty")
	}
	if name == IDAttribute {
		return ErrInvalidAttribute.WithDetails(`"id" is reserved for the record id`)
	}
	return nil
}

// Validate checks an assignment of value to attribute and returns the
// normalized value.
//
// The value must first be JSON-representable (ErrUnsupportedValue). Then,
// if it is non-null and the attribute already has a recorded type, the
// kinds must match exactly (ErrSchemaViolation). Validate never modifies
// the schema.
func (s *Schema) Validate(attribute string, value any) (any, error) {
	if err := ValidateAttributeName(attribute); err != nil {
		return nil, err
	}

	n, err := Normalize(value)
	if err != nil {
		return nil, NewUnsupportedValue(s.collection, attribute, err.Error()).WithCause(err)
	}

	actual := TypeOf(n)
	if actual == TypeNull {
		return n, nil
	}
	if expected, ok := s.types[attribute]; ok && expected != actual {
		return nil, NewSchemaViolation(s.collection, attribute, expected, actual)
	}
	return n, nil
}

// RegisterIfNew records the type of a normalized value for an attribute
// seen for the first time. Null values and known attributes are no-ops.
// The returned bool reports whether a StructureChange was produced.
func (s *Schema) RegisterIfNew(attribute string, value any) (StructureChange, bool) {
	t := TypeOf(value)
	if t == TypeNull {
		return StructureChange{}, false
	}
	if _, ok := s.types[attribute]; ok {
		return StructureChange{}, false
	}

	s.types[attribute] = t
	s.order = append(s.order, attribute)
	return StructureChange{Collection: s.collection, Attribute: attribute, Type: t}, true
}

// TypeOf returns the recorded type of an attribute.
func (s *Schema) TypeOf(attribute string) (ValueType, bool) {
	if attribute == IDAttribute {
		return TypeNumber, true
	}
	t, ok := s.types[attribute]
	return t, ok
}

// Attributes returns the attribute names in registration order, "id" first.
func (s *Schema) Attributes() []string {
	out := make([]string, 0, len(s.order)+1)
	out = append(out, IDAttribute)
	return append(out, s.order...)
}

// Types returns a copy of the attribute to type name mapping, including
// "id".
func (s *Schema) Types() map[string]string {
	out := make(map[string]string, len(s.types)+1)
	out[IDAttribute] = string(TypeNumber)
	for name, t := range s.types {
		out[name] = string(t)
	}
	return out
}
