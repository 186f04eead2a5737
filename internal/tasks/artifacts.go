package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Artifact records which template version rendered a page.
type Artifact struct {
	Slug            string
	TemplateVersion string
	RenderedAt      time.Time
}

// RecordArtifact stores or replaces the provenance of slug's page.
func (s *Store) RecordArtifact(ctx context.Context, slug, templateVersion string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (slug, template_version, rendered_at) VALUES (?, ?, ?)
         ON CONFLICT(slug) DO UPDATE SET template_version = excluded.template_version, rendered_at = excluded.rendered_at`,
		slug, templateVersion, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("record artifact: %w", err)
	}
	return nil
}

// Artifact returns the provenance of slug's page, or nil if none is recorded.
func (s *Store) Artifact(ctx context.Context, slug string) (*Artifact, error) {
	var (
		a           Artifact
		renderedRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT slug, template_version, rendered_at FROM artifacts WHERE slug = ?`, slug,
	).Scan(&a.Slug, &a.TemplateVersion, &renderedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	if rendered, err := parseTimeString(renderedRaw); err == nil {
		a.RenderedAt = rendered
	}
	return &a, nil
}
