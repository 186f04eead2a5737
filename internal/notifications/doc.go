// Package notifications hands run summaries to an external delivery channel.
//
// Nothing here talks to a network API. The file sink drops one text file per
// message into an outbox directory watched by an external sender, and the
// queue sink inserts a row into the SQLite outbox. Both degrade to a no-op
// when the sink is "none".
//
// All pipeline code depends only on the Service interface; delivery errors
// are returned to the caller, which logs them without failing the run.
package notifications
