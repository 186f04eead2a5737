// Package drift evaluates every invariant against every page artifact and
// produces an ordered report.
//
// Detection never short-circuits and never fails: an artifact that cannot be
// read yields an unknown finding for each invariant, and a rule that cannot be
// evaluated (for example, a missing canonical value) yields a failed finding
// with evidence. The report holds exactly one finding per slug and invariant,
// ordered by slug and then by declaration order, so identical inputs format
// to identical bytes.
package drift
