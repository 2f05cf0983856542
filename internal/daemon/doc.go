// Package daemon coordinates the long-running minutes process.
//
// It wires configuration, the record store, the event bus, the pipeline
// stages, and notifications into a single lifecycle with flock-based locking
// to prevent multiple instances, and serves the HTTP API that submits work
// and exposes record state, the event journal, and the daemon log stream.
//
// Keep orchestration logic here: stage behaviour lives in internal/pipeline
// while the daemon focuses on startup, shutdown, and transport.
package daemon
