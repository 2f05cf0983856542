// Package language normalizes the spoken-language field of transcription
// requests. Word forms ("English"), ISO 639-2 codes ("eng", "fre") and BCP 47
// tags ("en-US") all collapse to the ISO 639-1 code the engine expects.
package language
