package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"sitedrift/internal/fileutil"
	"sitedrift/internal/textutil"
)

type format int

const (
	formatJSON format = iota
	formatYAML
)

func formatFor(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("entity file %s: unsupported extension (want .json, .yaml or .yml)", path)
	}
}

// Load reads the entity data file at path.
func Load(path string) (Records, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes entity data. The path's extension selects JSON or YAML.
func Parse(path string, data []byte) (Records, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}

	raw := map[string]map[string]any{}
	switch f {
	case formatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse entities %s: %w", path, err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse entities %s: %w", path, err)
		}
	}

	records := make(Records, len(raw))
	origin := make(map[string]string, len(raw))
	for key, fields := range raw {
		slug := textutil.NormalizeSlug(key)
		if slug == "" {
			return nil, fmt.Errorf("entities %s: key %q does not produce a slug", path, key)
		}
		if prev, dup := origin[slug]; dup {
			return nil, fmt.Errorf("entities %s: keys %q and %q both normalise to slug %q", path, prev, key, slug)
		}
		origin[slug] = key

		record := Record{Slug: slug, Fields: make(map[string]Value, len(fields))}
		for name, v := range fields {
			value, err := decodeValue(v)
			if err != nil {
				return nil, fmt.Errorf("entities %s: %s.%s: %w", path, slug, name, err)
			}
			record.Fields[name] = value
		}
		records[slug] = record
	}
	return records, nil
}

func decodeValue(v any) (Value, error) {
	switch typed := v.(type) {
	case string:
		return Text(typed), nil
	case []any:
		items := make([]string, 0, len(typed))
		for i, item := range typed {
			s, ok := item.(string)
			if !ok {
				return Value{}, fmt.Errorf("list item %d is %T, want string", i, item)
			}
			items = append(items, s)
		}
		return List(items...), nil
	case nil:
		return Value{}, fmt.Errorf("value is null")
	default:
		return Value{}, fmt.Errorf("value is %T, want string or list of strings", v)
	}
}

// Save writes records back to path atomically, in the format its extension
// names. Output is sorted by slug and field so repeated saves are stable.
func Save(path string, records Records) error {
	data, err := Encode(path, records)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save entities: %w", err)
	}
	return nil
}

// Encode serialises records in the format selected by path's extension.
func Encode(path string, records Records) ([]byte, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]any, len(records))
	for slug, record := range records {
		fields := make(map[string]any, len(record.Fields))
		for name, value := range record.Fields {
			if value.IsList {
				items := value.Items
				if items == nil {
					items = []string{}
				}
				fields[name] = items
			} else {
				fields[name] = value.Text
			}
		}
		out[slug] = fields
	}

	switch f {
	case formatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return nil, fmt.Errorf("encode entities: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode entities: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode entities: %w", err)
		}
		return append(data, '\n'), nil
	}
}
