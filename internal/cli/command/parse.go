package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/records-go/internal/core/domain"
)

// ParseValue reads a command line value as JSON and falls back to the raw
// text, so name=NYC and name='"NYC"' both store the string NYC. Integral
// numbers decode as int64.
func ParseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	if _, err := dec.Token(); err != io.EOF {
		return raw
	}
	return v
}

// parseAssignments parses key=value words in order.
func parseAssignments(args []string) ([]domain.Field, error) {
	fields := make([]domain.Field, 0, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		fields = append(fields, domain.F(key, ParseValue(raw)))
	}
	return fields, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return id, nil
}

// matchAll returns a predicate accepting records whose attributes equal
// every filter value.
func matchAll(filters []domain.Field) (func(domain.Snapshot) bool, error) {
	wanted := make([]domain.Field, 0, len(filters))
	for _, f := range filters {
		v, err := domain.Normalize(f.Value)
		if err != nil {
			return nil, err
		}
		wanted = append(wanted, domain.F(f.Name, v))
	}

	return func(s domain.Snapshot) bool {
		for _, f := range wanted {
			got, ok := s.Get(f.Name)
			if !ok || !domain.Equal(got, f.Value) {
				return false
			}
		}
		return true
	}, nil
}
