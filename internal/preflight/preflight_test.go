package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sitedrift/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "template.html")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckFileReadable("tmpl", f); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckFileReadable("tmpl", dir); r.Passed {
		t.Fatal("expected failure for directory")
	}
	if r := CheckFileReadable("tmpl", ""); r.Passed || r.Detail != "not configured" {
		t.Fatalf("unexpected result for empty path: %+v", r)
	}
}

func TestRunAllOnFixtureSite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteSite(t, cfg, map[string]testsupport.City{
		"beijing": {Name: "Beijing", Hero: "b.jpg", Attractions: []string{"Great Wall"}},
	})
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
	last := results[len(results)-1]
	if last.Name != "Template coverage" || !strings.Contains(last.Detail, "1 entities") {
		t.Fatalf("unexpected coverage result %+v", last)
	}
}

func TestCheckTemplateCoverageNamesMissingFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteSite(t, cfg, map[string]testsupport.City{
		"xian": {Name: "Xi'an", Hero: "x.jpg"},
	})
	testsupport.WriteFile(t, cfg.Paths.Template, "{{name}} {{food_icon}}")

	r := CheckTemplateCoverage(cfg)
	if r.Passed || r.Detail != "xian missing food_icon" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestCheckRunLockAndStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if r := CheckRunLock(cfg); !r.Passed || r.Detail != "idle" {
		t.Fatalf("expected idle lock, got %+v", r)
	}

	if _, err := store.AddIdea(context.Background(), "Add Harbin"); err != nil {
		t.Fatal(err)
	}
	r, counts := CheckStateStore(context.Background(), cfg)
	if !r.Passed || counts.OpenTasks != 1 || counts.PendingMessages != 0 {
		t.Fatalf("unexpected store result %+v %+v", r, counts)
	}
}
