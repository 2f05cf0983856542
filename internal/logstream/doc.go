// Package logstream drives `minutes logs`: it pages the daemon log API when
// the daemon is up and tails the current log file when it is not. Filters
// only work against the API since the file holds unparsed lines.
package logstream
