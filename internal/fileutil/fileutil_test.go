package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicCreatesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "cities", "beijing.html")

	if err := WriteFileAtomic(target, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(target, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q, want %q", got, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicAppliesMode(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "page.html")

	if err := WriteFileAtomic(target, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected mode %o", info.Mode().Perm())
	}
}

func TestWriteFileAtomic_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "occupied")
	if err := os.MkdirAll(filepath.Join(target, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(target, []byte("data"), 0o644); err == nil {
		t.Fatal("expected error when target is a non-empty directory")
	}
}

func TestDigestIsStable(t *testing.T) {
	a := Digest([]byte("<html>{{city_name}}</html>"))
	b := Digest([]byte("<html>{{city_name}}</html>"))
	if a != b {
		t.Fatalf("digest not stable: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Fatalf("unexpected digest length %d", len(a))
	}
	if a == Digest([]byte("<html>{{tagline}}</html>")) {
		t.Fatal("expected different digests for different content")
	}
}
