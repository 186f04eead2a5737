package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"sitedrift/internal/canonical"
	"sitedrift/internal/config"
	"sitedrift/internal/corpus"
	"sitedrift/internal/drift"
	"sitedrift/internal/entity"
	"sitedrift/internal/fileutil"
	"sitedrift/internal/invariant"
	"sitedrift/internal/logging"
	"sitedrift/internal/notifications"
	"sitedrift/internal/reconcile"
	"sitedrift/internal/tasks"
)

// CheckOptions controls a check run.
type CheckOptions struct {
	Fix    bool
	Notify bool
}

// Outcome describes a completed check run.
type Outcome struct {
	RunID         string            `json:"run_id"`
	StartedAt     time.Time         `json:"started_at"`
	Fix           bool              `json:"fix"`
	Initial       drift.Report      `json:"initial"`
	Final         drift.Report      `json:"final"`
	Applied       []reconcile.Fix   `json:"applied"`
	Skipped       []string          `json:"skipped"`
	Written       []string          `json:"written"`
	WriteFailures map[string]string `json:"write_failures,omitempty"`
	TasksOpened   int               `json:"tasks_opened"`
	TasksResolved int               `json:"tasks_resolved"`
	InvariantsVer int               `json:"invariants_version"`
}

// Summary converts the outcome into a notification summary.
func (o *Outcome) Summary() notifications.Summary {
	var issues []string
	for _, f := range o.Final.Failures() {
		issues = append(issues, fmt.Sprintf("%s/%s: %s", f.Slug, f.Invariant, f.Evidence))
	}
	written := make(map[string]struct{}, len(o.Written))
	for _, slug := range o.Written {
		written[slug] = struct{}{}
	}
	var fixes []string
	for _, f := range o.Applied {
		if _, ok := written[f.Slug]; ok {
			fixes = append(fixes, fmt.Sprintf("%s/%s: %s -> %s", f.Slug, f.Invariant, f.Before, f.After))
		}
	}
	return notifications.Summary{
		RunID:        o.RunID,
		ChecksRun:    len(o.Final.Findings),
		ChecksPassed: o.Final.Passed(),
		FixesApplied: fixes,
		Issues:       issues,
		Timestamp:    o.StartedAt,
	}
}

// Check detects drift and, with opts.Fix, reconciles it. When failures remain
// the returned error wraps ErrDriftRemaining and the outcome is still set.
func (r *Runner) Check(ctx context.Context, opts CheckOptions) (*Outcome, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	release, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer release()

	invs, err := invariant.Compile(r.cfg.Invariants)
	if err != nil {
		return nil, err
	}
	pages, err := r.loadCorpus()
	if err != nil {
		return nil, err
	}
	for slug, readErr := range pages.Unreadable {
		logging.WarnWithContext(logger, "page unreadable", "artifact_unreadable",
			logging.Slug(slug), logging.Error(readErr), logging.String(logging.FieldImpact, "findings reported as unknown"))
	}
	src, err := r.openCanonical(pages)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		RunID:         runID,
		StartedAt:     r.now().UTC(),
		Fix:           opts.Fix,
		InvariantsVer: r.cfg.InvariantsVersion,
		Skipped:       []string{},
		Written:       []string{},
	}
	outcome.Initial = drift.Detect(pages, src, invs)
	outcome.Final = outcome.Initial
	logger.Info("drift detected",
		logging.Args(
			logging.Int("checks", len(outcome.Initial.Findings)),
			logging.Int("failures", len(outcome.Initial.Failures())),
			logging.Bool("fix", opts.Fix),
		)...)

	if opts.Fix && !outcome.Initial.Clean() {
		final := r.fix(ctx, pages, src, invs, outcome)
		outcome.Final = drift.Detect(final, src, invs)
	}

	r.syncTasks(ctx, outcome, opts.Fix)

	if r.cfg.Audit.Enabled {
		if err := r.writeAudit(outcome); err != nil {
			logging.WarnWithContext(logger, "audit snapshot failed", "audit_failed", logging.Error(err))
		}
	}

	if opts.Notify && r.notifier != nil {
		if err := r.notifier.NotifyRunSummary(ctx, outcome.Summary()); err != nil {
			logging.WarnWithContext(logger, "notification failed", "notify_failed",
				logging.Error(err), logging.String(logging.FieldErrorHint, "check notifications settings"))
		}
	}

	failures := len(outcome.Final.Failures())
	logger.Info("check complete",
		logging.Args(
			logging.Int("failures", failures),
			logging.Int("fixes", len(outcome.Applied)),
			logging.Int("written", len(outcome.Written)),
			logging.Duration("elapsed", r.now().Sub(outcome.StartedAt)),
		)...)
	if failures > 0 {
		return outcome, fmt.Errorf("%w: %d failing checks", ErrDriftRemaining, failures)
	}
	return outcome, nil
}

// fix reconciles, writes changed pages, and returns the corpus as it now
// exists on disk.
func (r *Runner) fix(ctx context.Context, pages corpus.Corpus, src canonical.Source, invs []invariant.Invariant, outcome *Outcome) corpus.Corpus {
	logger := logging.WithContext(ctx, r.logger)

	result := reconcile.Reconcile(pages, outcome.Initial, src, invs)
	outcome.Applied = result.Applied
	for _, skipped := range result.Skipped {
		outcome.Skipped = append(outcome.Skipped, skipped.Error())
		var ambiguous *reconcile.AmbiguousPatchError
		attrs := []logging.Attr{logging.Error(skipped), logging.String(logging.FieldImpact, "artifact left unchanged")}
		if errors.As(skipped, &ambiguous) {
			attrs = append(attrs, logging.Slug(ambiguous.Slug), logging.Invariant(ambiguous.Invariant))
		}
		logging.WarnWithContext(logger, "fix skipped", "patch_skipped", attrs...)
	}
	for _, f := range result.Applied {
		logger.Info("fix applied", logging.Args(logging.Slug(f.Slug), logging.Invariant(f.Invariant),
			logging.String("before", f.Before), logging.String("after", f.After))...)
	}

	changed := corpus.Changed(pages, result.Corpus)
	written, err := corpus.Write(r.cfg.Paths.PagesDir, r.cfg.Paths.PageExtension, changed)
	outcome.Written = append(outcome.Written, written...)

	onDisk := pages.Clone()
	for _, slug := range written {
		onDisk.Pages[slug] = changed[slug]
	}
	var writeErr *corpus.WriteError
	if errors.As(err, &writeErr) {
		outcome.WriteFailures = make(map[string]string, len(writeErr.Failed))
		for slug, failure := range writeErr.Failed {
			outcome.WriteFailures[slug] = failure.Error()
			logger.Error("page write failed", logging.Args(logging.Slug(slug), logging.Error(failure))...)
		}
	}
	return onDisk
}

func (r *Runner) openCanonical(pages corpus.Corpus) (canonical.Source, error) {
	slugs := pages.Slugs()
	if r.cfg.Canonical.Source == config.SourceListing {
		if records, err := entity.Load(r.cfg.Paths.Entities); err == nil {
			seen := make(map[string]struct{}, len(slugs))
			for _, slug := range slugs {
				seen[slug] = struct{}{}
			}
			for _, slug := range records.Slugs() {
				if _, ok := seen[slug]; !ok {
					slugs = append(slugs, slug)
				}
			}
		}
	}
	src, err := canonical.Open(r.cfg, slugs)
	if err != nil {
		return nil, fmt.Errorf("load canonical source: %w", err)
	}
	return src, nil
}

func isManual(kind string) bool {
	return kind == config.KindRequiredToken || kind == config.KindMinimumCount
}

// syncTasks opens a task for each failure that needs an author and closes
// tasks whose finding no longer fails. Without Fix only manual kinds are
// raised, since substitution failures may still be fixed automatically.
func (r *Runner) syncTasks(ctx context.Context, outcome *Outcome, fixed bool) {
	if r.store == nil || !r.cfg.Tasks.Enabled {
		return
	}
	logger := logging.WithContext(ctx, r.logger)

	var failing []string
	for _, f := range outcome.Final.Failures() {
		key := tasks.FindingKey(f.Slug, f.Invariant)
		failing = append(failing, key)
		if f.Status != drift.StatusFail || !(fixed || isManual(f.Kind)) {
			continue
		}
		task, err := r.store.Enqueue(ctx, key, f.Slug, f.Invariant, f.Evidence)
		if err != nil {
			logging.WarnWithContext(logger, "task enqueue failed", "task_failed",
				logging.Slug(f.Slug), logging.Invariant(f.Invariant), logging.Error(err))
			continue
		}
		logger.Debug("task open", logging.Args(logging.Int64("task_id", task.ID), logging.Slug(f.Slug), logging.Invariant(f.Invariant))...)
		outcome.TasksOpened++
	}
	resolved, err := r.store.ResolveMissing(ctx, failing)
	if err != nil {
		logging.WarnWithContext(logger, "task resolution failed", "task_failed", logging.Error(err))
		return
	}
	outcome.TasksResolved = resolved
}

func (r *Runner) writeAudit(outcome *Outcome) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("encode audit: %w", err)
	}
	path := filepath.Join(r.cfg.AuditDir(), outcome.RunID+".json")
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}
