// Package entity loads, amends, and saves the structured records that feed
// page rendering.
//
// A data file maps slugs to records; each record field holds either a string
// or a list of strings. JSON and YAML files are both accepted and the format
// is chosen by extension. Slugs are normalised on load so "Xiàmén" and
// "xiamen" refer to the same record. Records are amended by merging fields in
// place and are never deleted.
package entity
