// Package tasks persists authoring tasks, the notification outbox, and page
// provenance in SQLite.
//
// Authoring tasks record drift that needs a human: a missing colour token or
// too few gallery images cannot be fixed by substitution. The check pipeline
// upserts one open task per slug and invariant and closes it automatically
// once the finding passes. Free-form ideas can be added alongside.
//
// The outbox holds run summaries for the queue notification sink until an
// external process delivers and acknowledges them. The artifacts table records
// which template version produced each page.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt the new schema.
package tasks
