package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"sitedrift/internal/canonical"
	"sitedrift/internal/config"
	"sitedrift/internal/corpus"
	"sitedrift/internal/drift"
	"sitedrift/internal/invariant"
)

// ErrNoCanonicalValue marks an equality failure that cannot be fixed because
// the canonical source has no value for the slot.
var ErrNoCanonicalValue = errors.New("no canonical value")

// AmbiguousPatchError reports a fix that could not be located uniquely.
type AmbiguousPatchError struct {
	Slug      string
	Invariant string
	Reason    string
}

func (e *AmbiguousPatchError) Error() string {
	return fmt.Sprintf("ambiguous patch for %s/%s: %s", e.Slug, e.Invariant, e.Reason)
}

// Fix describes one applied substitution.
type Fix struct {
	Slug      string `json:"slug"`
	Invariant string `json:"invariant"`
	Before    string `json:"before"`
	After     string `json:"after"`
}

// Result is the outcome of a reconciliation pass.
type Result struct {
	Corpus  corpus.Corpus
	Applied []Fix
	Skipped []error
	Manual  []drift.Finding
}

// Reconcile applies fixes for the failed findings in report and returns the
// patched corpus.
func Reconcile(c corpus.Corpus, report drift.Report, src canonical.Source, invs []invariant.Invariant) Result {
	byName := make(map[string]invariant.Invariant, len(invs))
	for _, inv := range invs {
		byName[inv.Name] = inv
	}

	targets := map[string]*config.Shape{}
	for _, inv := range invs {
		if inv.Kind != config.KindLinkShape {
			continue
		}
		if shape, ok := invariant.TargetShape(inv, c.Pages, src); ok {
			targets[inv.Name] = &shape
		}
	}

	result := Result{Corpus: c.Clone()}
	for _, f := range report.Failures() {
		if f.Status == drift.StatusUnknown {
			continue
		}
		inv, ok := byName[f.Invariant]
		if !ok {
			continue
		}
		text, ok := result.Corpus.Pages[f.Slug]
		if !ok {
			continue
		}

		switch inv.Kind {
		case config.KindRequiredToken, config.KindMinimumCount:
			result.Manual = append(result.Manual, f)

		case config.KindCrossArtifactEquality:
			patched, fix, err := fixEquality(inv, f.Slug, text, src)
			if err != nil {
				result.Skipped = append(result.Skipped, err)
				continue
			}
			if patched != text {
				result.Corpus.Pages[f.Slug] = patched
				result.Applied = append(result.Applied, fix)
			}

		case config.KindLinkShape:
			target := targets[inv.Name]
			if target == nil {
				result.Skipped = append(result.Skipped, &AmbiguousPatchError{Slug: f.Slug, Invariant: inv.Name, Reason: "no target link shape"})
				continue
			}
			patched, fixes, err := fixLinks(inv, f.Slug, text, *target)
			if err != nil {
				result.Skipped = append(result.Skipped, err)
				continue
			}
			if patched != text {
				result.Corpus.Pages[f.Slug] = patched
				result.Applied = append(result.Applied, fixes...)
			}
		}
	}
	return result
}

func fixEquality(inv invariant.Invariant, slug, text string, src canonical.Source) (string, Fix, error) {
	want, ok := "", false
	if src != nil {
		want, ok = src.Value(slug, inv.Slot)
	}
	if !ok {
		return text, Fix{}, fmt.Errorf("%s/%s: %w for slot %q", slug, inv.Name, ErrNoCanonicalValue, inv.Slot)
	}
	matches := inv.Extract(text)
	if len(matches) != 1 {
		return text, Fix{}, &AmbiguousPatchError{
			Slug:      slug,
			Invariant: inv.Name,
			Reason:    fmt.Sprintf("pattern matched %d times, want exactly 1", len(matches)),
		}
	}
	m := matches[0]
	patched := text[:m.Start] + want + text[m.End:]
	return patched, Fix{Slug: slug, Invariant: inv.Name, Before: m.Value, After: want}, nil
}

func fixLinks(inv invariant.Invariant, slug, text string, target config.Shape) (string, []Fix, error) {
	matches := inv.Extract(text)
	for _, m := range matches {
		if _, ok := inv.Classify(m.Value); !ok {
			return text, nil, &AmbiguousPatchError{
				Slug:      slug,
				Invariant: inv.Name,
				Reason:    fmt.Sprintf("link %q matches no declared shape", m.Value),
			}
		}
	}

	var (
		b     strings.Builder
		fixes []Fix
		last  int
	)
	b.Grow(len(text))
	for _, m := range matches {
		shape, _ := inv.Classify(m.Value)
		if shape.Name == target.Name {
			continue
		}
		rewritten := target.Prefix + strings.TrimPrefix(m.Value, shape.Prefix)
		if got, ok := inv.Classify(rewritten); !ok || got.Name != target.Name {
			return text, nil, &AmbiguousPatchError{
				Slug:      slug,
				Invariant: inv.Name,
				Reason:    fmt.Sprintf("rewritten link %q would not classify as %s", rewritten, target.Name),
			}
		}
		b.WriteString(text[last:m.Start])
		b.WriteString(rewritten)
		last = m.End
		fixes = append(fixes, Fix{Slug: slug, Invariant: inv.Name, Before: m.Value, After: rewritten})
	}
	if len(fixes) == 0 {
		return text, nil, nil
	}
	b.WriteString(text[last:])
	return b.String(), fixes, nil
}
