// Package preflight provides readiness checks for the filesystem paths and
// state that sitedrift depends on.
//
// The CLI "sitedrift status" command runs RunAll and displays every result
// alongside the state store and run lock.
package preflight
