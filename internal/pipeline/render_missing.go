package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sitedrift/internal/corpus"
	"sitedrift/internal/entity"
	"sitedrift/internal/fileutil"
	"sitedrift/internal/logging"
	"sitedrift/internal/render"
)

// RenderResult lists the pages created by RenderMissing.
type RenderResult struct {
	Created         []string
	Existing        int
	TemplateVersion string
}

// RenderMissing renders a page for every entity without one. Every render
// must succeed before anything is written; existing pages are never touched.
func (r *Runner) RenderMissing(ctx context.Context) (*RenderResult, error) {
	release, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer release()

	tmpl, err := os.ReadFile(r.cfg.Paths.Template)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	if len(tmpl) == 0 {
		return nil, fmt.Errorf("%s: %w", r.cfg.Paths.Template, render.ErrMissingTemplate)
	}
	records, err := entity.Load(r.cfg.Paths.Entities)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.cfg.Paths.PagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pages directory: %w", err)
	}
	existing, err := r.loadCorpus()
	if err != nil {
		return nil, err
	}

	opts := render.Options{ListSeparator: r.cfg.Render.ListSeparator}
	pages := map[string]string{}
	var errs []error
	for _, slug := range records.Slugs() {
		if existing.Has(slug) {
			continue
		}
		if r.isReserved(slug) {
			errs = append(errs, fmt.Errorf("%s: page would overwrite %s", slug, corpus.Path(r.cfg.Paths.PagesDir, r.cfg.Paths.PageExtension, slug)))
			continue
		}
		out, err := render.Render(string(tmpl), records[slug], opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pages[slug] = out
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("render aborted, nothing written: %w", errors.Join(errs...))
	}

	result := &RenderResult{
		Existing:        len(existing.Slugs()),
		TemplateVersion: fileutil.Digest(tmpl),
	}
	written, writeErr := corpus.Write(r.cfg.Paths.PagesDir, r.cfg.Paths.PageExtension, pages)
	result.Created = written
	for _, slug := range written {
		r.logger.Info("rendered page", logging.Args(logging.Slug(slug), logging.String("template_version", result.TemplateVersion))...)
		if r.store == nil {
			continue
		}
		if err := r.store.RecordArtifact(ctx, slug, result.TemplateVersion); err != nil {
			logging.WarnWithContext(r.logger, "record provenance failed", "provenance_failed",
				logging.Slug(slug), logging.Error(err), logging.String(logging.FieldImpact, "page written without provenance"))
		}
	}
	if writeErr != nil {
		return result, writeErr
	}
	return result, nil
}
