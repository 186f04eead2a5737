package drift_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"sitedrift/internal/canonical"
	"sitedrift/internal/config"
	"sitedrift/internal/corpus"
	"sitedrift/internal/drift"
	"sitedrift/internal/invariant"
)

var decls = []config.Invariant{
	{Name: "color-primary", Kind: config.KindRequiredToken, Token: "#2563eb"},
	{Name: "gallery-images", Kind: config.KindMinimumCount, Marker: `class="gallery-img"`, Count: 2},
	{Name: "hero-image", Kind: config.KindCrossArtifactEquality, Slot: "hero", Pattern: `--hero-image: url\('([^']+)'\)`},
	{Name: "back-home-link", Kind: config.KindLinkShape, Pattern: `href="([^"]*index\.html)"`, Shapes: []config.Shape{
		{Name: "relative", Prefix: "../"},
		{Name: "absolute", Prefix: "/site/"},
	}},
}

func mustCompile(t testing.TB, decls []config.Invariant) []invariant.Invariant {
	t.Helper()
	invs, err := invariant.Compile(decls)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	return invs
}

func page(hero, link string, gallery int) string {
	var b strings.Builder
	b.WriteString("<style>:root { --primary: #2563eb; --hero-image: url('" + hero + "'); }</style>\n")
	for range gallery {
		b.WriteString(`<img class="gallery-img" src="g.jpg">` + "\n")
	}
	b.WriteString(`<a href="` + link + `">Home</a>` + "\n")
	return b.String()
}

func find(t *testing.T, r drift.Report, slug, inv string) drift.Finding {
	t.Helper()
	for _, f := range r.Findings {
		if f.Slug == slug && f.Invariant == inv {
			return f
		}
	}
	t.Fatalf("no finding for %s/%s", slug, inv)
	return drift.Finding{}
}

func TestDetectHeroMismatch(t *testing.T) {
	table := &canonical.Table{Slots: map[string]map[string]string{
		"beijing":  {"hero": "X"},
		"shanghai": {"hero": "S"},
	}}
	c := corpus.Corpus{Pages: map[string]string{
		"beijing":  page("Y", "../index.html", 2),
		"shanghai": page("S", "../index.html", 2),
	}}

	report := drift.Detect(c, table, mustCompile(t, decls))
	failures := report.Failures()
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %+v", failures)
	}
	if failures[0].Slug != "beijing" || failures[0].Kind != config.KindCrossArtifactEquality {
		t.Fatalf("unexpected failure %+v", failures[0])
	}
	if !strings.Contains(failures[0].Evidence, `"Y"`) {
		t.Fatalf("expected evidence to quote found value, got %q", failures[0].Evidence)
	}
}

func TestDetectMinorityLinkShape(t *testing.T) {
	c := corpus.Corpus{Pages: map[string]string{
		"a": page("h", "../index.html", 2),
		"b": page("h", "../index.html", 2),
		"c": page("h", "/site/index.html", 2),
	}}
	table := &canonical.Table{Slots: map[string]map[string]string{"a": {"hero": "h"}, "b": {"hero": "h"}, "c": {"hero": "h"}}}

	report := drift.Detect(c, table, mustCompile(t, decls))
	failures := report.Failures()
	if len(failures) != 1 || failures[0].Slug != "c" || failures[0].Invariant != "back-home-link" {
		t.Fatalf("expected only c/back-home-link to fail, got %+v", failures)
	}

	table.LinkShapes = map[string]string{"back-home-link": "absolute"}
	report = drift.Detect(c, table, mustCompile(t, decls))
	if got := len(report.Failures()); got != 2 {
		t.Fatalf("with absolute declared canonical, expected 2 failures, got %d", got)
	}
}

func TestDetectEdgeCases(t *testing.T) {
	table := &canonical.Table{Slots: map[string]map[string]string{"full": {"hero": "h"}}}
	c := corpus.Corpus{
		Pages: map[string]string{
			"full":     page("h", "../index.html", 3),
			"nohero":   "#2563eb <a href=\"index.html\">x</a>",
			"nolinks":  "#2563eb",
			"orphaned": page("h", "../index.html", 2),
		},
		Unreadable: map[string]error{"locked": errors.New("permission denied")},
	}
	report := drift.Detect(c, table, mustCompile(t, decls))

	tests := []struct {
		slug, inv string
		status    drift.Status
		evidence  string
	}{
		{"full", "gallery-images", drift.StatusPass, "found 3"},
		{"nohero", "hero-image", drift.StatusFail, "no canonical value"},
		{"nohero", "back-home-link", drift.StatusFail, "matches no declared shape"},
		{"nohero", "gallery-images", drift.StatusFail, "found 0"},
		{"nolinks", "back-home-link", drift.StatusPass, "no matching links"},
		{"orphaned", "hero-image", drift.StatusFail, "no canonical value"},
		{"locked", "color-primary", drift.StatusUnknown, "permission denied"},
	}
	for _, tc := range tests {
		f := find(t, report, tc.slug, tc.inv)
		if f.Status != tc.status || !strings.Contains(f.Evidence, tc.evidence) {
			t.Fatalf("%s/%s got %s %q want %s containing %q", tc.slug, tc.inv, f.Status, f.Evidence, tc.status, tc.evidence)
		}
	}

	full := canonical.Table{Slots: map[string]map[string]string{"full": {"hero": "h"}}}
	withNoMatch := corpus.Corpus{Pages: map[string]string{"full": "#2563eb"}}
	f := find(t, drift.Detect(withNoMatch, &full, mustCompile(t, decls)), "full", "hero-image")
	if f.Status != drift.StatusFail || !strings.Contains(f.Evidence, "matched nothing") {
		t.Fatalf("expected pattern-miss failure, got %+v", f)
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	c := corpus.Corpus{Pages: map[string]string{}}
	for i := range 20 {
		c.Pages[fmt.Sprintf("city-%02d", i)] = page("h", "../index.html", i%4)
	}
	invs := mustCompile(t, decls)

	var first, second bytes.Buffer
	if err := drift.WriteText(&first, drift.Detect(c, nil, invs)); err != nil {
		t.Fatal(err)
	}
	if err := drift.WriteText(&second, drift.Detect(c, nil, invs)); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Fatalf("formatted reports differ:\n%s", cmp.Diff(first.String(), second.String()))
	}
	if !strings.HasSuffix(first.String(), "80 checks, 50 passed, 30 failed\n") {
		t.Fatalf("unexpected totals line in %q", first.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := drift.WriteJSON(&buf, drift.Report{}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "{\n  \"findings\": []\n}" {
		t.Fatalf("got %q", buf.String())
	}
}

// Every slug is paired with every invariant, in slug then declaration order.
func TestDetectCompleteness(t *testing.T) {
	invs := mustCompile(t, decls)
	rapid.Check(t, func(t *rapid.T) {
		slugs := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z]{1,6}`), rapid.ID[string]).Draw(t, "slugs")
		c := corpus.New()
		for _, slug := range slugs {
			if rapid.Bool().Draw(t, "unreadable-"+slug) {
				c.Unreadable[slug] = errors.New("io")
				continue
			}
			c.Pages[slug] = page(rapid.SampledFrom([]string{"a", "b"}).Draw(t, "hero"),
				rapid.SampledFrom([]string{"../index.html", "/site/index.html", "index.html"}).Draw(t, "link"),
				rapid.IntRange(0, 3).Draw(t, "gallery"))
		}

		report := drift.Detect(c, &canonical.Table{}, invs)
		if len(report.Findings) != len(slugs)*len(invs) {
			t.Fatalf("got %d findings want %d", len(report.Findings), len(slugs)*len(invs))
		}
		sorted := c.Slugs()
		for i, f := range report.Findings {
			if f.Slug != sorted[i/len(invs)] || f.Invariant != invs[i%len(invs)].Name {
				t.Fatalf("finding %d is %s/%s, out of order", i, f.Slug, f.Invariant)
			}
		}
	})
}
