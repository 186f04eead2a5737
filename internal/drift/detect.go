package drift

import (
	"fmt"
	"strings"

	"sitedrift/internal/canonical"
	"sitedrift/internal/config"
	"sitedrift/internal/corpus"
	"sitedrift/internal/invariant"
)

// Status is the outcome of one finding.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusUnknown Status = "unknown"
)

// Finding is the result of one invariant evaluated against one artifact.
type Finding struct {
	Slug      string `json:"slug"`
	Invariant string `json:"invariant"`
	Kind      string `json:"kind"`
	Status    Status `json:"status"`
	Evidence  string `json:"evidence"`
}

// Passed reports whether the finding holds.
func (f Finding) Passed() bool {
	return f.Status == StatusPass
}

// Key identifies the slug and invariant pair.
func (f Finding) Key() string {
	return f.Slug + "/" + f.Invariant
}

// Report is the ordered result of one detection pass.
type Report struct {
	Findings []Finding `json:"findings"`
}

// Failures returns findings that did not pass, unknown included.
func (r Report) Failures() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if !f.Passed() {
			out = append(out, f)
		}
	}
	return out
}

// Passed counts passing findings.
func (r Report) Passed() int {
	n := 0
	for _, f := range r.Findings {
		if f.Passed() {
			n++
		}
	}
	return n
}

// Clean reports whether every finding passed.
func (r Report) Clean() bool {
	return r.Passed() == len(r.Findings)
}

// Detect evaluates invs against every artifact in c.
func Detect(c corpus.Corpus, src canonical.Source, invs []invariant.Invariant) Report {
	slugs := c.Slugs()
	targets := make(map[string]linkTarget, len(invs))
	for _, inv := range invs {
		if inv.Kind == config.KindLinkShape {
			shape, ok := invariant.TargetShape(inv, c.Pages, src)
			targets[inv.Name] = linkTarget{shape: shape, ok: ok}
		}
	}

	report := Report{Findings: make([]Finding, 0, len(slugs)*len(invs))}
	for _, slug := range slugs {
		text, readable := c.Pages[slug]
		for _, inv := range invs {
			f := Finding{Slug: slug, Invariant: inv.Name, Kind: inv.Kind}
			if !readable {
				f.Status = StatusUnknown
				f.Evidence = fmt.Sprintf("artifact unreadable: %v", c.Unreadable[slug])
				report.Findings = append(report.Findings, f)
				continue
			}
			var passed bool
			passed, f.Evidence = evaluate(inv, slug, text, src, targets[inv.Name])
			f.Status = StatusFail
			if passed {
				f.Status = StatusPass
			}
			report.Findings = append(report.Findings, f)
		}
	}
	return report
}

type linkTarget struct {
	shape config.Shape
	ok    bool
}

func evaluate(inv invariant.Invariant, slug, text string, src canonical.Source, target linkTarget) (bool, string) {
	switch inv.Kind {
	case config.KindRequiredToken:
		if strings.Contains(text, inv.Token) {
			return true, fmt.Sprintf("token %q present", inv.Token)
		}
		return false, fmt.Sprintf("token %q not found", inv.Token)

	case config.KindMinimumCount:
		n := inv.CountMarker(text)
		return n >= inv.Count, fmt.Sprintf("found %d of %q, need %d", n, inv.Marker, inv.Count)

	case config.KindCrossArtifactEquality:
		return evaluateEquality(inv, slug, text, src)

	case config.KindLinkShape:
		return evaluateLinks(inv, text, target)

	default:
		return false, fmt.Sprintf("unsupported invariant kind %q", inv.Kind)
	}
}

func evaluateEquality(inv invariant.Invariant, slug, text string, src canonical.Source) (bool, string) {
	want, ok := "", false
	if src != nil {
		want, ok = src.Value(slug, inv.Slot)
	}
	if !ok {
		return false, fmt.Sprintf("no canonical value for slot %q", inv.Slot)
	}
	matches := inv.Extract(text)
	if len(matches) == 0 {
		return false, fmt.Sprintf("pattern matched nothing; canonical %q", want)
	}
	for _, m := range matches {
		if m.Value != want {
			return false, fmt.Sprintf("found %q, canonical %q", m.Value, want)
		}
	}
	return true, fmt.Sprintf("%d match(es) equal %q", len(matches), want)
}

func evaluateLinks(inv invariant.Invariant, text string, target linkTarget) (bool, string) {
	matches := inv.Extract(text)
	if len(matches) == 0 {
		return true, "no matching links"
	}
	for _, m := range matches {
		shape, ok := inv.Classify(m.Value)
		if !ok {
			return false, fmt.Sprintf("link %q matches no declared shape", m.Value)
		}
		if target.ok && shape.Name != target.shape.Name {
			return false, fmt.Sprintf("link %q is %s, want %s", m.Value, shape.Name, target.shape.Name)
		}
	}
	if !target.ok {
		return true, fmt.Sprintf("%d link(s)", len(matches))
	}
	return true, fmt.Sprintf("%d link(s) %s", len(matches), target.shape.Name)
}
