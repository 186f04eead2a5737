package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"sitedrift/internal/config"
	"sitedrift/internal/corpus"
	"sitedrift/internal/logging"
	"sitedrift/internal/notifications"
	"sitedrift/internal/tasks"
)

var (
	// ErrRunLocked is returned when another run holds the run lock.
	ErrRunLocked = errors.New("another sitedrift run is in progress")
	// ErrDriftRemaining is returned by Check when the final report still has failures.
	ErrDriftRemaining = errors.New("drift remains")
)

// Runner executes pipeline operations for one site.
type Runner struct {
	cfg      *config.Config
	store    *tasks.Store
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a runner. store may be nil, in which case authoring tasks
// and provenance are not recorded. notifier may be nil to disable hand-off.
func New(cfg *config.Config, store *tasks.Store, notifier notifications.Service, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("pipeline requires config")
	}
	return &Runner{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		now:      time.Now,
	}, nil
}

// lock acquires the run lock and returns its release function.
func (r *Runner) lock() (func(), error) {
	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	lock := flock.New(r.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunLocked
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("release run lock failed", logging.Error(err))
		}
	}, nil
}

// siteFiles lists the files that may live among the pages but are never
// pages themselves.
func (r *Runner) siteFiles() []string {
	return []string{r.cfg.Paths.Template, r.cfg.Paths.ListingPage}
}

// loadCorpus reads the page set, skipping the template and listing page.
func (r *Runner) loadCorpus() (corpus.Corpus, error) {
	return corpus.Load(r.cfg.Paths.PagesDir, r.cfg.Paths.PageExtension, r.siteFiles()...)
}

// isReserved reports whether the page path for slug is one of siteFiles.
func (r *Runner) isReserved(slug string) bool {
	path, err := filepath.Abs(corpus.Path(r.cfg.Paths.PagesDir, r.cfg.Paths.PageExtension, slug))
	if err != nil {
		return false
	}
	for _, file := range r.siteFiles() {
		if abs, err := filepath.Abs(file); err == nil && abs == path {
			return true
		}
	}
	return false
}
