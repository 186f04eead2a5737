package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"sitedrift/internal/config"
	"sitedrift/internal/corpus"
)

// CityTemplate renders a page that satisfies CityInvariants for any record
// with name, hero, and attractions fields.
const CityTemplate = `<!DOCTYPE html>
<html>
<head>
<title>{{name}}</title>
<style>
:root { --primary: #2563eb; --secondary: #1e40af; --accent: #f59e0b; --hero-image: url('{{hero}}'); }
</style>
</head>
<body>
<a href="../index.html">Back to all cities</a>
<h1>{{name}}</h1>
<p>{{attractions}}</p>
<img class="gallery-img" src="../images/{{slug}}-1.jpg">
<img class="gallery-img" src="../images/{{slug}}-2.jpg">
<img class="gallery-img" src="../images/{{slug}}-3.jpg">
</body>
</html>
`

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteJSON marshals value to path.
func WriteJSON(t testing.TB, path string, value any) {
	t.Helper()

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	WriteFile(t, path, string(data))
}

// City is a fixture entity record.
type City struct {
	Name        string
	Hero        string
	Attractions []string
}

// WriteSite lays out a template, entity file, and canonical table for cities.
// Canonical hero values equal each city's Hero field.
func WriteSite(t testing.TB, cfg *config.Config, cities map[string]City) {
	t.Helper()

	WriteFile(t, cfg.Paths.Template, CityTemplate)
	if err := os.MkdirAll(cfg.Paths.PagesDir, 0o755); err != nil {
		t.Fatalf("mkdir pages: %v", err)
	}

	entities := map[string]map[string]any{}
	slots := map[string]map[string]string{}
	for slug, city := range cities {
		attractions := city.Attractions
		if attractions == nil {
			attractions = []string{}
		}
		entities[slug] = map[string]any{
			"name":        city.Name,
			"hero":        city.Hero,
			"attractions": attractions,
		}
		slots[slug] = map[string]string{"hero": city.Hero}
	}
	WriteJSON(t, cfg.Paths.Entities, entities)
	WriteJSON(t, cfg.Paths.Canonical, map[string]any{"version": 1, "slots": slots})
}

// WritePage writes a page artifact for slug.
func WritePage(t testing.TB, cfg *config.Config, slug, content string) {
	t.Helper()
	WriteFile(t, corpus.Path(cfg.Paths.PagesDir, cfg.Paths.PageExtension, slug), content)
}

// ReadPage returns the page artifact for slug.
func ReadPage(t testing.TB, cfg *config.Config, slug string) string {
	t.Helper()

	data, err := os.ReadFile(corpus.Path(cfg.Paths.PagesDir, cfg.Paths.PageExtension, slug))
	if err != nil {
		t.Fatalf("read page %s: %v", slug, err)
	}
	return string(data)
}
