package entity

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrUnknownEntity is returned when an operation names a slug with no record.
var ErrUnknownEntity = errors.New("unknown entity")

// Value is one record field: a single string or a list of strings.
type Value struct {
	Text   string
	Items  []string
	IsList bool
}

// Text returns a scalar field value.
func Text(s string) Value {
	return Value{Text: s}
}

// List returns a list field value.
func List(items ...string) Value {
	return Value{Items: slices.Clone(items), IsList: true}
}

// Join renders the value as text, joining list items with sep.
func (v Value) Join(sep string) string {
	if v.IsList {
		return strings.Join(v.Items, sep)
	}
	return v.Text
}

func (v Value) equal(other Value) bool {
	if v.IsList != other.IsList {
		return false
	}
	if v.IsList {
		return slices.Equal(v.Items, other.Items)
	}
	return v.Text == other.Text
}

// Record describes one content unit.
type Record struct {
	Slug   string
	Fields map[string]Value
}

// Field returns the named field. The slug is always available as "slug"
// unless the record defines that field itself.
func (r Record) Field(name string) (Value, bool) {
	if v, ok := r.Fields[name]; ok {
		return v, true
	}
	if name == "slug" && r.Slug != "" {
		return Text(r.Slug), true
	}
	return Value{}, false
}

// FieldNames returns the record's field names in sorted order.
func (r Record) FieldNames() []string {
	return slices.Sorted(maps.Keys(r.Fields))
}

// Records is the full entity set keyed by slug.
type Records map[string]Record

// Slugs returns every slug in ascending order.
func (rs Records) Slugs() []string {
	return slices.Sorted(maps.Keys(rs))
}

// Amend merges fields into the record for slug. Existing fields with the same
// name are replaced; other fields are kept. It reports whether anything
// changed.
func (rs Records) Amend(slug string, fields map[string]Value) (bool, error) {
	record, ok := rs[slug]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownEntity, slug)
	}
	if record.Fields == nil {
		record.Fields = make(map[string]Value, len(fields))
	}
	changed := false
	for name, value := range fields {
		name = strings.TrimSpace(name)
		if name == "" {
			return false, fmt.Errorf("amend %s: empty field name", slug)
		}
		if current, exists := record.Fields[name]; exists && current.equal(value) {
			continue
		}
		record.Fields[name] = value
		changed = true
	}
	rs[slug] = record
	return changed, nil
}

// ParseAssignment parses a CLI field assignment. "key=value" yields a text
// value and "key=a|b|c" yields a list.
func ParseAssignment(arg string) (string, Value, error) {
	key, raw, ok := strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", Value{}, fmt.Errorf("invalid assignment %q (want key=value)", arg)
	}
	if !strings.Contains(raw, "|") {
		return key, Text(raw), nil
	}
	parts := strings.Split(raw, "|")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return key, List(items...), nil
}
