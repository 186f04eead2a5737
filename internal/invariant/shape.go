package invariant

import (
	"maps"
	"slices"

	"sitedrift/internal/config"
)

// ShapeDeclarer reports the canonical shape for a link_shape invariant.
type ShapeDeclarer interface {
	LinkShape(invariant string) (string, bool)
}

// TargetShape picks the shape every link of inv must use. A shape declared
// by the canonical source wins. Otherwise the most common classified shape
// across pages is used, ties going to the shape declared first. ok is false
// when no shape is declared and no page has a classifiable link.
func TargetShape(inv Invariant, pages map[string]string, declared ShapeDeclarer) (config.Shape, bool) {
	if declared != nil {
		if name, ok := declared.LinkShape(inv.Name); ok {
			if shape, ok := inv.Shape(name); ok {
				return shape, true
			}
		}
	}

	counts := make(map[string]int, len(inv.Shapes))
	for _, slug := range slices.Sorted(maps.Keys(pages)) {
		for _, m := range inv.Extract(pages[slug]) {
			if shape, ok := inv.Classify(m.Value); ok {
				counts[shape.Name]++
			}
		}
	}

	var best config.Shape
	bestCount := 0
	for _, shape := range inv.Shapes {
		if counts[shape.Name] > bestCount {
			best = shape
			bestCount = counts[shape.Name]
		}
	}
	return best, bestCount > 0
}
