// Package preflight provides readiness checks for the filesystem paths and
// external collaborators the minutes daemon depends on.
//
// The daemon runs RunAll and CheckSystemDeps at startup and logs the
// results; the CLI "minutes status" command renders the same checks.
// Failures are reported, never fatal: a missing engine only fails the
// records that reach the transcription stage.
package preflight
