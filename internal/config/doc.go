// Package config loads, normalizes, and validates sitedrift configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), anchors site-relative paths at paths.site_dir, reads TOML
// files, and honours the SITEDRIFT_SITE_DIR environment fallback. The Config
// type is also the single versioned home of the invariant list: checks are
// declared as data here so adding one never needs new control flow.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical enum values, and clear validation errors.
package config
