// Package api defines the wire-format types, converters and HTTP client for
// the daemon API. It translates store records, bus events and log events into
// transport-friendly DTOs so the CLI and other consumers never couple to
// internal types.
//
// # Key Types
//
// Record: transport representation of a meeting record with lifecycle,
// transcript and analysis fields.
//
// DaemonStatus: daemon running state, record counts, bus activity and
// dependency checks.
//
// EventStreamResponse/LogStreamResponse: cursor-based pages of bus events and
// structured log lines for live tailing.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Client maps non-2xx responses to *Error so callers can branch on the HTTP
// status without parsing bodies.
package api
