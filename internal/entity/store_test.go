package entity_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sitedrift/internal/entity"
)

func TestParseJSONNormalisesSlugs(t *testing.T) {
	data := []byte(`{
  "Xiàmén": {"name": "Xiamen", "attractions": ["Gulangyu", "Nanputuo"]},
  "beijing": {"name": "Beijing", "hero": "images/beijing.jpg"}
}`)
	records, err := entity.Parse("cities.json", data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got, want := records.Slugs(), []string{"beijing", "xiamen"}; !cmp.Equal(got, want) {
		t.Fatalf("slugs mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
	attractions, ok := records["xiamen"].Field("attractions")
	if !ok || !attractions.IsList {
		t.Fatalf("expected list field, got %#v", attractions)
	}
	if got := attractions.Join(", "); got != "Gulangyu, Nanputuo" {
		t.Fatalf("Join got %q want %q", got, "Gulangyu, Nanputuo")
	}
	slug, ok := records["beijing"].Field("slug")
	if !ok || slug.Text != "beijing" {
		t.Fatalf("expected implicit slug field, got %#v", slug)
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte("hong kong:\n  name: Hong Kong\n  foods:\n    - dim sum\n    - egg tart\n")
	records, err := entity.Parse("cities.yaml", data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	record, ok := records["hong-kong"]
	if !ok {
		t.Fatalf("expected hong-kong record, got %v", records.Slugs())
	}
	if got := record.Fields["foods"].Items; !cmp.Equal(got, []string{"dim sum", "egg tart"}) {
		t.Fatalf("foods got %v", got)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
		want string
	}{
		{"number", "c.json", `{"beijing": {"population": 21}}`, "beijing.population"},
		{"nested list", "c.json", `{"beijing": {"tags": ["a", ["b"]]}}`, "list item 1"},
		{"null", "c.yaml", "beijing:\n  hero: null\n", "null"},
		{"duplicate slug", "c.json", `{"Beijing": {}, "beijing": {}}`, "both normalise"},
		{"extension", "c.txt", `{}`, "unsupported extension"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := entity.Parse(tc.path, []byte(tc.data))
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestAmendMergesAndSaveRoundTrips(t *testing.T) {
	for _, name := range []string{"cities.json", "cities.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			records := entity.Records{
				"beijing": {Slug: "beijing", Fields: map[string]entity.Value{"name": entity.Text("Beijing")}},
			}

			changed, err := records.Amend("beijing", map[string]entity.Value{
				"food_icon": entity.Text("🥟"),
				"foods":     entity.List("duck", "noodles"),
			})
			if err != nil || !changed {
				t.Fatalf("Amend got changed=%v err=%v", changed, err)
			}
			changed, err = records.Amend("beijing", map[string]entity.Value{"name": entity.Text("Beijing")})
			if err != nil || changed {
				t.Fatalf("repeat Amend got changed=%v err=%v, want no change", changed, err)
			}

			if err := entity.Save(path, records); err != nil {
				t.Fatalf("Save returned error: %v", err)
			}
			loaded, err := entity.Load(path)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if diff := cmp.Diff(records, loaded); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}

			first, _ := os.ReadFile(path)
			if err := entity.Save(path, loaded); err != nil {
				t.Fatal(err)
			}
			second, _ := os.ReadFile(path)
			if string(first) != string(second) {
				t.Fatalf("expected stable output across saves")
			}
		})
	}
}

func TestAmendUnknownEntity(t *testing.T) {
	records := entity.Records{}
	_, err := records.Amend("atlantis", map[string]entity.Value{"name": entity.Text("x")})
	if !errors.Is(err, entity.ErrUnknownEntity) {
		t.Fatalf("got %v want ErrUnknownEntity", err)
	}
}

func TestParseAssignment(t *testing.T) {
	key, value, err := entity.ParseAssignment("foods=duck| noodles |")
	if err != nil {
		t.Fatal(err)
	}
	if key != "foods" || !value.IsList || !cmp.Equal(value.Items, []string{"duck", "noodles"}) {
		t.Fatalf("got %s=%#v", key, value)
	}
	key, value, err = entity.ParseAssignment("hero=images/a.jpg")
	if err != nil || key != "hero" || value.IsList || value.Text != "images/a.jpg" {
		t.Fatalf("got %s=%#v err=%v", key, value, err)
	}
	if _, _, err := entity.ParseAssignment("=x"); err == nil {
		t.Fatal("expected error for empty key")
	}
}
