// Package store persists transcription records in SQLite (default) or
// PostgreSQL.
//
// Records are addressed by (group, id). Put performs an additive merge: only
// fields present in the patch change, updatedAt strictly increases per key,
// and every write appends a revision to the record history. Writes to the same
// key are serialized; writes to different keys proceed concurrently.
package store
