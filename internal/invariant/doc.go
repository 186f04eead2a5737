// Package invariant compiles declared rules into matchers shared by drift
// detection and reconciliation, so both sides read artifacts through the same
// extraction pattern.
package invariant
