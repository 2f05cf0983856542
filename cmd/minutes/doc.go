// Package main hosts the minutes CLI entrypoint and command graph.
//
// Commands talk to the running daemon over its HTTP API. Read-only record
// commands fall back to opening the record store directly when the daemon
// is not running, and the analyze command runs the text-analysis engine
// offline against a transcript file.
package main
