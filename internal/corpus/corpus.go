package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"sitedrift/internal/fileutil"
)

// Corpus is the set of page artifacts for one site.
type Corpus struct {
	Pages      map[string]string
	Unreadable map[string]error
}

// New returns an empty corpus.
func New() Corpus {
	return Corpus{Pages: map[string]string{}, Unreadable: map[string]error{}}
}

// Clone returns a copy whose maps can be modified independently.
func (c Corpus) Clone() Corpus {
	out := Corpus{
		Pages:      maps.Clone(c.Pages),
		Unreadable: maps.Clone(c.Unreadable),
	}
	if out.Pages == nil {
		out.Pages = map[string]string{}
	}
	if out.Unreadable == nil {
		out.Unreadable = map[string]error{}
	}
	return out
}

// Slugs returns every slug, readable or not, ascending.
func (c Corpus) Slugs() []string {
	set := make(map[string]struct{}, len(c.Pages)+len(c.Unreadable))
	for slug := range c.Pages {
		set[slug] = struct{}{}
	}
	for slug := range c.Unreadable {
		set[slug] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Has reports whether an artifact exists for slug.
func (c Corpus) Has(slug string) bool {
	if _, ok := c.Pages[slug]; ok {
		return true
	}
	_, ok := c.Unreadable[slug]
	return ok
}

// Load reads every <slug><ext> file directly inside dir. Paths listed in
// exclude (such as a template kept alongside the pages) are skipped.
func Load(dir, ext string, exclude ...string) (Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Corpus{}, fmt.Errorf("read pages directory: %w", err)
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, path := range exclude {
		if abs, err := filepath.Abs(path); err == nil {
			skip[abs] = struct{}{}
		}
	}

	c := New()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		path := filepath.Join(dir, name)
		if abs, err := filepath.Abs(path); err == nil {
			if _, ok := skip[abs]; ok {
				continue
			}
		}
		slug := strings.TrimSuffix(name, filepath.Ext(name))
		if slug == "" || strings.HasPrefix(slug, ".") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			c.Unreadable[slug] = err
			continue
		}
		c.Pages[slug] = string(data)
	}
	return c, nil
}

// Path returns the artifact path for slug.
func Path(dir, ext, slug string) string {
	return filepath.Join(dir, slug+ext)
}

// WriteError collects per-artifact write failures.
type WriteError struct {
	Failed map[string]error
}

func (e *WriteError) Error() string {
	slugs := slices.Sorted(maps.Keys(e.Failed))
	parts := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		parts = append(parts, fmt.Sprintf("%s: %v", slug, e.Failed[slug]))
	}
	return "write artifacts: " + strings.Join(parts, "; ")
}

func (e *WriteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, slug := range slices.Sorted(maps.Keys(e.Failed)) {
		errs = append(errs, e.Failed[slug])
	}
	return errs
}

// Write stores each page atomically. A failure for one artifact does not stop
// the others; failures are returned together as a *WriteError. The slugs
// written successfully are returned in ascending order.
func Write(dir, ext string, pages map[string]string) ([]string, error) {
	var written []string
	failed := map[string]error{}
	for _, slug := range slices.Sorted(maps.Keys(pages)) {
		if err := fileutil.WriteFileAtomic(Path(dir, ext, slug), []byte(pages[slug]), 0o644); err != nil {
			failed[slug] = err
			continue
		}
		written = append(written, slug)
	}
	if len(failed) > 0 {
		return written, &WriteError{Failed: failed}
	}
	return written, nil
}

// Diff returns the slugs whose text differs between before and after,
// including pages present on only one side, ascending.
func Diff(before, after Corpus) []string {
	var changed []string
	for _, slug := range unionSlugs(before.Pages, after.Pages) {
		old, hadOld := before.Pages[slug]
		cur, hasCur := after.Pages[slug]
		if hadOld != hasCur || old != cur {
			changed = append(changed, slug)
		}
	}
	return changed
}

// Changed returns the pages of after that differ from before.
func Changed(before, after Corpus) map[string]string {
	out := map[string]string{}
	for _, slug := range Diff(before, after) {
		if text, ok := after.Pages[slug]; ok {
			out[slug] = text
		}
	}
	return out
}

func unionSlugs(a, b map[string]string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		set[k] = struct{}{}
	}
	for k := range b {
		set[k] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// IsNotExist reports whether err means the pages directory is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
