// Package engine defines the speech-to-text collaborator contract and its
// adapters.
//
// Command runs an external transcription script and parses the JSON object
// it prints. Func adapts a plain function, which is how tests and embedders
// supply engines. Limiter wraps any Engine with a deadline and a bounded
// pool of concurrent calls.
package engine
