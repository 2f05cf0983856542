// Package daemonctl starts, stops and restarts the background daemon for the
// `minutes start|stop|restart` commands. Liveness comes from the HTTP status
// endpoint; signals go to the pid reported there or recorded in the state
// directory.
package daemonctl
