package preflight

import (
	"context"

	"sitedrift/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the site and state checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryReadable("Site directory", cfg.Paths.SiteDir),
		CheckDirectoryAccess("Pages directory", cfg.Paths.PagesDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFileReadable("Template", cfg.Paths.Template),
		CheckFileReadable("Entity data", cfg.Paths.Entities),
	}

	switch cfg.Canonical.Source {
	case config.SourceListing:
		results = append(results, CheckFileReadable("Canonical listing page", cfg.Paths.ListingPage))
	default:
		results = append(results, CheckFileReadable("Canonical table", cfg.Paths.Canonical))
	}

	if results[3].Passed && results[4].Passed {
		results = append(results, CheckTemplateCoverage(cfg))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
