// Package reconcile patches page artifacts so they satisfy the invariants a
// drift report found broken.
//
// Fixes are targeted substitutions located with the same extraction pattern
// detection used. A fix that cannot be located unambiguously is skipped with
// an AmbiguousPatchError and the rest of the run continues. Token and count
// failures need new content and are returned as manual findings. The input
// corpus is never modified, and reconciling an already reconciled corpus
// returns it unchanged.
package reconcile
