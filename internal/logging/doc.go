// Package logging builds the slog loggers used by the daemon and CLI.
//
// Console output is one line per record with the component and record key
// pulled to the front; JSON output is one object per line. Stage code tags
// lines through WithContext, which reads the record key, stage and
// correlation id stored by the services context helpers. When a StreamHub is
// configured every record is mirrored into it for the /api/logs endpoint.
package logging
