package analysis

import (
	"strings"
	"unicode"
)

// lines splits a transcript into trimmed, non-empty lines. A line ends at a
// newline or at sentence punctuation followed by whitespace, so single-line
// engine output still yields one entry per sentence.
func lines(text string) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		start := 0
		runes := []rune(raw)
		for i, r := range runes {
			if r != '.' && r != '!' && r != '?' {
				continue
			}
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				continue
			}
			out = appendTrimmed(out, string(runes[start:i+1]))
			start = i + 1
		}
		out = appendTrimmed(out, string(runes[start:]))
	}
	return out
}

func appendTrimmed(dst []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		dst = append(dst, s)
	}
	return dst
}

// words splits lowercased text into letter/digit runs.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// wordCount counts whitespace-separated tokens.
func wordCount(text string) int {
	return len(strings.Fields(text))
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func length(s string) int {
	return len([]rune(s))
}
