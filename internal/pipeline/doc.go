// Package pipeline orchestrates sitedrift runs: rendering missing pages and
// the check/fix cycle.
//
// A check run takes the run lock, loads the corpus and canonical source,
// detects drift, and with Fix reconciles, rewrites changed pages atomically,
// and detects again. It then syncs authoring tasks, optionally writes a JSON
// audit snapshot, and hands a summary to the notification service. Every log
// line of a run carries the same run_id.
//
// Check returns ErrDriftRemaining alongside a populated Outcome when failures
// survive the run; callers map it to exit status 1.
package pipeline
