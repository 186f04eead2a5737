package invariant

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"sitedrift/internal/config"
)

// Invariant is a compiled rule.
type Invariant struct {
	Name    string
	Kind    string
	Token   string
	Marker  string
	Count   int
	Slot    string
	Pattern *regexp.Regexp
	Shapes  []config.Shape
}

// Match is one capture of an invariant pattern. Start and End delimit the
// captured value within the artifact text.
type Match struct {
	Value string
	Start int
	End   int
}

// Compile turns declarations into invariants, preserving declaration order.
func Compile(decls []config.Invariant) ([]Invariant, error) {
	out := make([]Invariant, 0, len(decls))
	for i, decl := range decls {
		inv := Invariant{
			Name:   decl.Name,
			Kind:   decl.Kind,
			Token:  decl.Token,
			Marker: decl.Marker,
			Count:  decl.Count,
			Slot:   decl.Slot,
			Shapes: slices.Clone(decl.Shapes),
		}
		switch decl.Kind {
		case config.KindRequiredToken, config.KindMinimumCount:
		case config.KindCrossArtifactEquality, config.KindLinkShape:
			re, err := regexp.Compile(decl.Pattern)
			if err != nil {
				return nil, fmt.Errorf("invariants[%d].pattern: %w", i, err)
			}
			if re.NumSubexp() != 1 {
				return nil, fmt.Errorf("invariants[%d].pattern: want exactly one capture group, found %d", i, re.NumSubexp())
			}
			inv.Pattern = re
		default:
			return nil, fmt.Errorf("invariants[%d].kind: unsupported value %q", i, decl.Kind)
		}
		out = append(out, inv)
	}
	return out, nil
}

// Extract returns every capture of the invariant pattern in text.
func (inv Invariant) Extract(text string) []Match {
	if inv.Pattern == nil {
		return nil
	}
	var matches []Match
	for _, idx := range inv.Pattern.FindAllStringSubmatchIndex(text, -1) {
		if len(idx) < 4 || idx[2] < 0 {
			continue
		}
		matches = append(matches, Match{Value: text[idx[2]:idx[3]], Start: idx[2], End: idx[3]})
	}
	return matches
}

// CountMarker counts non-overlapping occurrences of the marker.
func (inv Invariant) CountMarker(text string) int {
	if inv.Marker == "" {
		return 0
	}
	return strings.Count(text, inv.Marker)
}

// Classify returns the shape whose prefix starts link. When several match,
// the longest prefix wins.
func (inv Invariant) Classify(link string) (config.Shape, bool) {
	var best config.Shape
	found := false
	for _, shape := range inv.Shapes {
		if !strings.HasPrefix(link, shape.Prefix) {
			continue
		}
		if !found || len(shape.Prefix) > len(best.Prefix) {
			best = shape
			found = true
		}
	}
	return best, found
}

// Shape looks up a declared shape by name.
func (inv Invariant) Shape(name string) (config.Shape, bool) {
	for _, shape := range inv.Shapes {
		if shape.Name == name {
			return shape, true
		}
	}
	return config.Shape{}, false
}
