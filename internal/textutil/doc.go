// Package textutil provides small text helpers shared by the entity loader,
// the CLI, and the notification sinks.
//
// The primary use cases are:
//   - Normalizing entity keys into stable lowercase slugs
//   - Deriving display names from slugs for entity listings
//   - Sanitizing tokens for safe use in outbox file names
//
// Slug normalization folds case and strips combining marks so that keys
// such as "Xiàmén" and "xiamen" address the same entity.
package textutil
