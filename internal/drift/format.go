package drift

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteText writes one line per finding followed by a totals line.
func WriteText(w io.Writer, r Report) error {
	for _, f := range r.Findings {
		if _, err := fmt.Fprintf(w, "%-7s %s %s: %s\n", f.Status, f.Slug, f.Invariant, f.Evidence); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d checks, %d passed, %d failed\n", len(r.Findings), r.Passed(), len(r.Findings)-r.Passed())
	return err
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	if r.Findings == nil {
		r.Findings = []Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
