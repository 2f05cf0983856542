// Package pipeline moves meeting recordings from submission to analysis.
//
// Ingress validates a submission, creates the record, and publishes
// work-accepted. TranscriptionStage consumes work-accepted, calls the
// speech-to-text engine, and publishes transcription-completed or
// transcription-failed. AnalysisStage consumes transcription-completed,
// runs the text analysis, and publishes summary-completed and
// action-items-extracted.
//
// Stages never return record failures to the bus. Every outcome is written to
// the store, so clients observe progress and errors by reading the record.
package pipeline
