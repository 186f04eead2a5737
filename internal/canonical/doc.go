// Package canonical provides the single authoritative source of slot values
// that every page must agree with.
//
// Exactly one source is configured per site: a table file (JSON or YAML) or
// the listing page, from which values are extracted with per-slot patterns.
// Any other representation, such as a table exported from the listing page,
// is a generated projection produced by Project and is never edited by hand.
package canonical
