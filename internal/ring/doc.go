// Package ring is a bounded, sequence-numbered buffer with blocking reads. The
// event journal and the daemon log hub both page through one with a cursor.
package ring
