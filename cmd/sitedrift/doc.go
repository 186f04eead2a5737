// Package main hosts the sitedrift CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the pipeline runner
// (render-missing, check), the state store (tasks, outbox), the entity and
// canonical data files, and configuration scaffolding. Configuration, logger,
// and store setup live in commandContext so subcommands only describe their
// output.
//
// Add behaviour to the internal packages first and surface it here through
// dedicated commands or flags.
package main
