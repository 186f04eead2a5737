package tasks_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"sitedrift/internal/tasks"
	"sitedrift/internal/testsupport"
)

func TestEnqueueUpsertsPerFinding(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	key := tasks.FindingKey("beijing", "gallery-images")
	first, err := store.Enqueue(ctx, key, "beijing", "gallery-images", "found 1, need 3")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	second, err := store.Enqueue(ctx, key, "beijing", "gallery-images", "found 2, need 3")
	if err != nil {
		t.Fatalf("second Enqueue failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected upsert to keep id %d, got %d", first.ID, second.ID)
	}
	if second.Detail != "found 2, need 3" || second.Status != tasks.StatusOpen || second.Kind != tasks.KindFinding {
		t.Fatalf("unexpected task after upsert: %#v", second)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 task, got %d", len(all))
	}
}

func TestResolveMissingClosesPassingFindings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, slug := range []string{"beijing", "shanghai", "xian"} {
		if _, err := store.Enqueue(ctx, tasks.FindingKey(slug, "color-accent"), slug, "color-accent", "missing"); err != nil {
			t.Fatal(err)
		}
	}
	idea, err := store.AddIdea(ctx, "Add a food section to every city page")
	if err != nil {
		t.Fatalf("AddIdea failed: %v", err)
	}

	closed, err := store.ResolveMissing(ctx, []string{tasks.FindingKey("shanghai", "color-accent")})
	if err != nil {
		t.Fatalf("ResolveMissing failed: %v", err)
	}
	if closed != 2 {
		t.Fatalf("closed got %d want 2", closed)
	}

	open, err := store.List(ctx, tasks.StatusOpen)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 2 || open[0].Slug != "shanghai" || open[1].ID != idea.ID {
		t.Fatalf("unexpected open tasks: %#v", open)
	}
	done, err := store.List(ctx, tasks.StatusDone)
	if err != nil {
		t.Fatal(err)
	}
	for _, task := range done {
		if task.ResolvedAt == nil {
			t.Fatalf("expected resolved_at on %#v", task)
		}
	}

	reopened, err := store.Enqueue(ctx, tasks.FindingKey("beijing", "color-accent"), "beijing", "color-accent", "missing again")
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Status != tasks.StatusOpen || reopened.ResolvedAt != nil {
		t.Fatalf("expected task to reopen, got %#v", reopened)
	}
}

func TestMarkDone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	idea, err := store.AddIdea(ctx, "Write a Chengdu page")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.MarkDone(ctx, idea.ID); err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if n, _ := store.Count(ctx, tasks.StatusOpen); n != 0 {
		t.Fatalf("open count got %d want 0", n)
	}
	if err := store.MarkDone(ctx, 999); !errors.Is(err, tasks.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.AddIdea(ctx, "  "); err == nil {
		t.Fatal("expected error for empty idea")
	}
}

func TestOutboxLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := store.EnqueueMessage(ctx, "telegram:ops", "first")
	if err != nil {
		t.Fatalf("EnqueueMessage failed: %v", err)
	}
	if _, err := store.EnqueueMessage(ctx, "telegram:ops", "second"); err != nil {
		t.Fatal(err)
	}

	pending, err := store.PendingMessages(ctx)
	if err != nil {
		t.Fatalf("PendingMessages failed: %v", err)
	}
	if len(pending) != 2 || pending[0].Body != "first" {
		t.Fatalf("unexpected pending messages: %#v", pending)
	}

	if err := store.AckMessage(ctx, first.ID); err != nil {
		t.Fatalf("AckMessage failed: %v", err)
	}
	if err := store.AckMessage(ctx, first.ID); !errors.Is(err, tasks.ErrNotFound) {
		t.Fatalf("second ack got %v want ErrNotFound", err)
	}
	pending, err = store.PendingMessages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Body != "second" {
		t.Fatalf("unexpected pending after ack: %#v", pending)
	}
	if _, err := store.EnqueueMessage(ctx, "", "x"); err == nil {
		t.Fatal("expected error without destination")
	}
}

func TestArtifactProvenance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	missing, err := store.Artifact(ctx, "beijing")
	if err != nil || missing != nil {
		t.Fatalf("expected no artifact, got %#v err=%v", missing, err)
	}
	if err := store.RecordArtifact(ctx, "beijing", "aaaaaaaaaaaa"); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordArtifact(ctx, "beijing", "bbbbbbbbbbbb"); err != nil {
		t.Fatal(err)
	}
	got, err := store.Artifact(ctx, "beijing")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.TemplateVersion != "bbbbbbbbbbbb" || got.RenderedAt.IsZero() {
		t.Fatalf("unexpected artifact: %#v", got)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	store.Close()

	db, err := sql.Open("sqlite", cfg.StorePath())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := tasks.Open(cfg); !errors.Is(err, tasks.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
