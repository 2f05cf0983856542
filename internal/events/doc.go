// Package events implements the in-process topic bus that links pipeline
// stages.
//
// Payloads are a closed set of typed structs, one per topic, checked at
// Publish. Every delivery runs in its own goroutine on a context detached
// from the publisher's cancellation, so a stage that returns early never
// aborts downstream work. Published events are also appended to a bounded
// Journal that the daemon exposes for long polling and server-sent events.
package events
