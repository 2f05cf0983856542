// Package notifications pushes meeting milestones to ntfy.
//
// Service renders an Event plus a loose Payload into an ntfy message and
// degrades to a no-op when no topic is configured. Attach subscribes a
// Service to the event bus so finished summaries and failed transcriptions
// reach the operator without the pipeline knowing notifications exist.
package notifications
