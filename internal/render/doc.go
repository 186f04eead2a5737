// Package render substitutes entity record fields into page templates.
//
// Templates reference fields with {{name}} tokens. Substitution is a single
// pass over the template: values are copied verbatim and never rescanned, so
// a field containing "{{x}}" is emitted literally. A template that references
// any field the record lacks fails as a whole with UnresolvedPlaceholderError;
// partial output is never returned. The package performs no I/O.
package render
