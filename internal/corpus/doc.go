// Package corpus reads and writes the set of rendered page artifacts.
//
// A corpus maps slugs to page text. Pages that exist but cannot be read are
// tracked separately so drift detection can report them as unknown instead of
// aborting the run. Writes go through fileutil.WriteFileAtomic so a reader
// never observes a half-written page.
package corpus
