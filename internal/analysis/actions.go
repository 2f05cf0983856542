package analysis

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	actionMinLineLength = 10
	actionMaxItems      = 5
	defaultSpeaker      = "Team"
)

var actionIndicators = []string{
	"will", "should", "need to", "must", "action", "todo", "follow up", "complete", "deliver",
}

var fallbackActionItems = []string{
	"Team: Review meeting notes and confirm next steps",
	"Team: Share updates with stakeholders",
	"Team: Schedule follow-up meeting if needed",
}

var titleCaser = cases.Title(language.English)

// ActionItems extracts up to five attributed action items. A transcript with
// no action language yields three generic items.
func ActionItems(transcript string, participants []string) []string {
	var items []string
	for _, line := range lines(transcript) {
		lower := strings.ToLower(line)
		if length(line) <= actionMinLineLength || !containsAny(lower, actionIndicators...) {
			continue
		}
		items = append(items, speakerFor(lower, participants)+": "+line)
		if len(items) == actionMaxItems {
			break
		}
	}
	if len(items) == 0 {
		return slices.Clone(fallbackActionItems)
	}
	return items
}

// speakerFor returns the first participant whose first name appears as a
// word in the lowercased line.
func speakerFor(lowerLine string, participants []string) string {
	tokens := words(lowerLine)
	for _, participant := range participants {
		fields := strings.Fields(participant)
		if len(fields) == 0 {
			continue
		}
		first := strings.ToLower(fields[0])
		if slices.Contains(tokens, first) {
			return titleCaser.String(first)
		}
	}
	return defaultSpeaker
}
