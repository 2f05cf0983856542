package analysis

import "strings"

const (
	decisionMinLineLength = 10
	decisionMaxItems      = 3
)

var decisionIndicators = []string{"decided", "agreed", "approved", "concluded", "determined", "resolved"}

// Decisions returns up to three lines that record a decision.
func Decisions(transcript string) []string {
	out := []string{}
	for _, line := range lines(transcript) {
		if length(line) <= decisionMinLineLength {
			continue
		}
		if containsAny(strings.ToLower(line), decisionIndicators...) {
			out = append(out, line)
			if len(out) == decisionMaxItems {
				break
			}
		}
	}
	return out
}
