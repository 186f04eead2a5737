package notifications

import (
	"fmt"
	"strings"
	"time"
)

// maxListedItems caps how many fixes or issues a summary spells out.
const maxListedItems = 20

// Summary is the outcome of one check run.
type Summary struct {
	RunID        string
	ChecksRun    int
	ChecksPassed int
	FixesApplied []string
	Issues       []string
	Timestamp    time.Time
}

// Healthy reports whether every check passed.
func (s Summary) Healthy() bool {
	return s.ChecksRun == s.ChecksPassed
}

// FormatSummary renders s as plain text. The output depends only on s.
func FormatSummary(s Summary) string {
	var b strings.Builder
	status := "OK"
	if !s.Healthy() {
		status = "DRIFT"
	}
	fmt.Fprintf(&b, "Site check %s: %s\n", s.Timestamp.UTC().Format("2006-01-02 15:04 UTC"), status)
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	}
	fmt.Fprintf(&b, "Checks: %d run, %d passed, %d failed\n", s.ChecksRun, s.ChecksPassed, s.ChecksRun-s.ChecksPassed)
	if len(s.FixesApplied) == 0 {
		b.WriteString("Fixes applied: 0\n")
	} else {
		writeList(&b, "Fixes applied", s.FixesApplied)
	}
	if len(s.Issues) > 0 {
		writeList(&b, "Issues", s.Issues)
	}
	return b.String()
}

// writeList writes "<title> (n):" and up to maxListedItems entries.
func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "%s (%d):\n", title, len(items))
	for i, item := range items {
		if i == maxListedItems {
			fmt.Fprintf(b, "... and %d more\n", len(items)-maxListedItems)
			break
		}
		fmt.Fprintf(b, "- %s\n", item)
	}
}
