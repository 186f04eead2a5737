package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusOpen Status = "open"
	StatusDone Status = "done"
)

// Kind distinguishes tasks raised by drift from free-form ideas.
type Kind string

const (
	KindFinding Kind = "finding"
	KindIdea    Kind = "idea"
)

// Task is one authoring task.
type Task struct {
	ID         int64      `json:"id"`
	Key        string     `json:"key,omitempty"`
	Kind       Kind       `json:"kind"`
	Slug       string     `json:"slug,omitempty"`
	Invariant  string     `json:"invariant,omitempty"`
	Detail     string     `json:"detail"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// FindingKey builds the task key for a slug and invariant pair.
func FindingKey(slug, invariant string) string {
	return slug + "/" + invariant
}

const taskColumns = "id, task_key, kind, slug, invariant, detail, status, created_at, updated_at, resolved_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		task        Task
		key         sql.NullString
		kind        string
		slug        sql.NullString
		invariant   sql.NullString
		status      string
		createdRaw  string
		updatedRaw  string
		resolvedRaw sql.NullString
	)
	if err := scanner.Scan(&task.ID, &key, &kind, &slug, &invariant, &task.Detail, &status, &createdRaw, &updatedRaw, &resolvedRaw); err != nil {
		return nil, err
	}
	task.Key = key.String
	task.Kind = Kind(kind)
	task.Slug = slug.String
	task.Invariant = invariant.String
	task.Status = Status(status)
	if created, err := parseTimeString(createdRaw); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		task.UpdatedAt = updated
	}
	task.ResolvedAt = parseNullableTime(resolvedRaw)
	return &task, nil
}

// Enqueue opens a task for a failing finding, or refreshes the existing task
// with the same key. A task that was done is reopened.
func (s *Store) Enqueue(ctx context.Context, key, slug, invariant, detail string) (*Task, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("task key is required")
	}
	ts := s.timestamp()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (task_key, kind, slug, invariant, detail, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(task_key) DO UPDATE SET
             detail = excluded.detail,
             status = excluded.status,
             updated_at = excluded.updated_at,
             resolved_at = NULL`,
		key, KindFinding, nullableString(slug), nullableString(invariant), detail, StatusOpen, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue task: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_key = ?`, key)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	return task, nil
}

// AddIdea records a free-form authoring task.
func (s *Store) AddIdea(ctx context.Context, text string) (*Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("idea text is required")
	}
	ts := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (kind, detail, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		KindIdea, text, StatusOpen, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert idea: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a task. It returns nil when no task has the id.
func (s *Store) GetByID(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List returns tasks filtered by status set (or all tasks when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// Count returns the number of tasks with status.
func (s *Store) Count(ctx context.Context, status Status) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tasks WHERE status = ?`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// MarkDone closes a task.
func (s *Store) MarkDone(ctx context.Context, id int64) error {
	ts := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ?, resolved_at = ? WHERE id = ?`,
		StatusDone, ts, ts, id,
	)
	if err != nil {
		return fmt.Errorf("mark task done: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

// ResolveMissing closes every open finding task whose key is not in
// openKeys, and returns how many were closed. Ideas are never touched.
func (s *Store) ResolveMissing(ctx context.Context, openKeys []string) (int, error) {
	keep := make(map[string]struct{}, len(openKeys))
	for _, key := range openKeys {
		keep[key] = struct{}{}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_key FROM tasks WHERE kind = ? AND status = ?`, KindFinding, StatusOpen)
	if err != nil {
		return 0, fmt.Errorf("query open tasks: %w", err)
	}
	var stale []int64
	for rows.Next() {
		var (
			id  int64
			key sql.NullString
		)
		if err := rows.Scan(&id, &key); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan open task: %w", err)
		}
		if _, ok := keep[key.String]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()
	if len(stale) == 0 {
		return 0, nil
	}

	ts := s.timestamp()
	args := []any{StatusDone, ts, ts}
	for _, id := range stale {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ?, resolved_at = ? WHERE id IN (`+makePlaceholders(len(stale))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("resolve tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
