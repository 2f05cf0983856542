// Package analysis derives meeting insights from transcript text.
//
// Every function here is pure and deterministic: the same transcript,
// participants and duration always produce byte-identical output. The
// thresholds and vocabularies are fixed constants, not configuration, and
// are pinned by the package tests.
package analysis
