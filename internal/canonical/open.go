package canonical

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"sitedrift/internal/config"
)

// Open loads the source cfg designates as authoritative. slugs names the
// entities whose values are read from the listing page. Link shape
// declarations must name a declared link_shape invariant and one of its
// shapes.
func Open(cfg *config.Config, slugs []string) (Source, error) {
	var (
		table *Table
		err   error
	)
	switch cfg.Canonical.Source {
	case config.SourceTable:
		table, err = LoadTable(cfg.Paths.Canonical)
	case config.SourceListing:
		text, readErr := os.ReadFile(cfg.Paths.ListingPage)
		if readErr != nil {
			return nil, fmt.Errorf("read listing page: %w", readErr)
		}
		table, err = FromListing(string(text), slugs, cfg.Canonical.ListingSlots, cfg.Canonical.LinkShapes)
	default:
		return nil, fmt.Errorf("canonical.source: unsupported value %q", cfg.Canonical.Source)
	}
	if err != nil {
		return nil, err
	}
	if err := CheckLinkShapes(table, cfg.Invariants); err != nil {
		return nil, err
	}
	return table, nil
}

// CheckLinkShapes rejects link shape declarations that name no link_shape
// invariant or a shape the invariant does not declare.
func CheckLinkShapes(t *Table, invs []config.Invariant) error {
	if t == nil {
		return nil
	}
	shapes := make(map[string][]string, len(invs))
	for _, inv := range invs {
		if inv.Kind != config.KindLinkShape {
			continue
		}
		names := make([]string, 0, len(inv.Shapes))
		for _, shape := range inv.Shapes {
			names = append(names, shape.Name)
		}
		shapes[inv.Name] = names
	}
	for _, name := range slices.Sorted(maps.Keys(t.LinkShapes)) {
		declared := t.LinkShapes[name]
		known, ok := shapes[name]
		if !ok {
			return fmt.Errorf("canonical link_shapes.%s does not match any link_shape invariant", name)
		}
		if !slices.Contains(known, declared) {
			return fmt.Errorf("canonical link_shapes.%s names unknown shape %q (declared: %v)", name, declared, known)
		}
	}
	return nil
}
