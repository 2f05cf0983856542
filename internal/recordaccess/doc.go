// Package recordaccess gives the CLI one read surface over meeting records,
// served by the running daemon's HTTP API when it answers and by the record
// store directly otherwise.
package recordaccess
