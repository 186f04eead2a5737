package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"sitedrift/internal/config"
	"sitedrift/internal/fileutil"
	"sitedrift/internal/textutil"
)

// Source answers canonical lookups.
type Source interface {
	// Value returns the canonical value of slot for slug.
	Value(slug, slot string) (string, bool)
	// LinkShape returns the shape name declared canonical for a link_shape
	// invariant.
	LinkShape(invariant string) (string, bool)
	// Slugs lists every slug with at least one canonical value, ascending.
	Slugs() []string
}

// TableVersion is the table format version written by Project.
const TableVersion = 1

// Table is the file form of a canonical source.
type Table struct {
	Version    int                          `json:"version" yaml:"version"`
	Slots      map[string]map[string]string `json:"slots" yaml:"slots"`
	LinkShapes map[string]string            `json:"link_shapes,omitempty" yaml:"link_shapes,omitempty"`
}

func (t *Table) Value(slug, slot string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.Slots[slug][slot]
	return v, ok
}

func (t *Table) LinkShape(invariant string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.LinkShapes[invariant]
	return v, ok && v != ""
}

func (t *Table) Slugs() []string {
	if t == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(t.Slots))
}

// SlotNames returns every slot name used by any slug, ascending.
func (t *Table) SlotNames() []string {
	set := map[string]struct{}{}
	for _, slots := range t.Slots {
		for slot := range slots {
			set[slot] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// LoadTable reads a canonical table file. The extension selects JSON or YAML.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read canonical table: %w", err)
	}

	var table Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse canonical table %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse canonical table %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("canonical table %s: unsupported extension (want .json, .yaml or .yml)", path)
	}

	if table.Version > TableVersion {
		return nil, fmt.Errorf("canonical table %s: version %d is newer than supported version %d", path, table.Version, TableVersion)
	}

	slots := make(map[string]map[string]string, len(table.Slots))
	for key, values := range table.Slots {
		slug := textutil.NormalizeSlug(key)
		if slug == "" {
			return nil, fmt.Errorf("canonical table %s: key %q does not produce a slug", path, key)
		}
		if _, dup := slots[slug]; dup {
			return nil, fmt.Errorf("canonical table %s: slug %q declared twice", path, slug)
		}
		slots[slug] = values
	}
	table.Slots = slots
	return &table, nil
}

// FromListing extracts canonical values from the listing page text. Each
// slot pattern contains the literal "{slug}", replaced by the quoted slug
// before matching, and exactly one capture group holding the value. The first
// match wins; slugs with no match have no value for that slot.
func FromListing(text string, slugs []string, slots []config.ListingSlot, linkShapes map[string]string) (*Table, error) {
	table := &Table{
		Version:    TableVersion,
		Slots:      make(map[string]map[string]string),
		LinkShapes: maps.Clone(linkShapes),
	}
	for _, slot := range slots {
		if !strings.Contains(slot.Pattern, "{slug}") {
			return nil, fmt.Errorf("listing slot %q: pattern must contain {slug}", slot.Slot)
		}
		for _, slug := range slugs {
			expr := strings.ReplaceAll(slot.Pattern, "{slug}", regexp.QuoteMeta(slug))
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("listing slot %q: %w", slot.Slot, err)
			}
			if re.NumSubexp() != 1 {
				return nil, fmt.Errorf("listing slot %q: pattern must have exactly one capture group", slot.Slot)
			}
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if table.Slots[slug] == nil {
				table.Slots[slug] = make(map[string]string)
			}
			table.Slots[slug][slot.Slot] = m[1]
		}
	}
	return table, nil
}

// Project copies the given slots and link shapes of src into a Table.
func Project(src Source, slots []string, invariants []string) *Table {
	table := &Table{
		Version: TableVersion,
		Slots:   make(map[string]map[string]string),
	}
	for _, slug := range src.Slugs() {
		for _, slot := range slots {
			v, ok := src.Value(slug, slot)
			if !ok {
				continue
			}
			if table.Slots[slug] == nil {
				table.Slots[slug] = make(map[string]string)
			}
			table.Slots[slug][slot] = v
		}
	}
	for _, name := range invariants {
		if shape, ok := src.LinkShape(name); ok {
			if table.LinkShapes == nil {
				table.LinkShapes = make(map[string]string)
			}
			table.LinkShapes[name] = shape
		}
	}
	return table
}

// Encode serialises the table in the format path's extension names.
func (t *Table) Encode(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return nil, fmt.Errorf("encode canonical table: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode canonical table: %w", err)
		}
		return buf.Bytes(), nil
	case ".json":
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode canonical table: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("canonical table %s: unsupported extension (want .json, .yaml or .yml)", path)
	}
}

// Save writes the table atomically.
func (t *Table) Save(path string) error {
	data, err := t.Encode(path)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}
