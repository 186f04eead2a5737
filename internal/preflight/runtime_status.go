package preflight

import (
	"context"
	"fmt"

	"github.com/gofrs/flock"

	"sitedrift/internal/config"
	"sitedrift/internal/tasks"
)

// CheckRunLock reports whether a check run currently holds the run lock.
// Holding the lock is not a failure; the result only fails when the lock
// file cannot be inspected.
func CheckRunLock(cfg *config.Config) Result {
	const name = "Run lock"

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.LockPath(), err)}
	}
	if !locked {
		return Result{Name: name, Passed: true, Detail: "run in progress"}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: "idle"}
}

// StoreCounts summarises the state store for status output.
type StoreCounts struct {
	OpenTasks       int
	PendingMessages int
}

// CheckStateStore opens the state database and counts open tasks and pending
// outbox messages.
func CheckStateStore(ctx context.Context, cfg *config.Config) (Result, StoreCounts) {
	const name = "State store"

	store, err := tasks.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}, StoreCounts{}
	}
	defer store.Close()

	var counts StoreCounts
	if counts.OpenTasks, err = store.Count(ctx, tasks.StatusOpen); err != nil {
		return Result{Name: name, Detail: err.Error()}, StoreCounts{}
	}
	pending, err := store.PendingMessages(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}, StoreCounts{}
	}
	counts.PendingMessages = len(pending)
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (ok)", store.Path())}, counts
}
