package analysis

import "strings"

const topicMinMatches = 2

type topicKeywords struct {
	name     string
	keywords []string
}

// Ordered: topics are reported in table order.
var topicTable = []topicKeywords{
	{"Project Management", []string{"project", "timeline", "deadline", "milestone", "deliverable"}},
	{"Technology", []string{"technology", "software", "system", "database", "deployment", "code"}},
	{"Budget & Finance", []string{"budget", "cost", "revenue", "expense", "funding", "financial"}},
	{"Team Coordination", []string{"team", "collaboration", "meeting", "communication", "coordinate"}},
	{"Quality Assurance", []string{"testing", "quality", "bug", "qa", "review"}},
	{"Marketing & Sales", []string{"marketing", "sales", "customer", "campaign", "launch"}},
	{"Strategy & Planning", []string{"strategy", "goal", "plan", "roadmap", "vision"}},
	{"Human Resources", []string{"hiring", "training", "onboarding", "performance", "recruitment"}},
}

var fallbackTopics = []string{"General Discussion", "Team Updates"}

// KeyTopics returns the table topics with at least two keywords present.
func KeyTopics(transcript string) []string {
	lower := strings.ToLower(transcript)
	var topics []string
	for _, topic := range topicTable {
		matches := 0
		for _, keyword := range topic.keywords {
			if strings.Contains(lower, keyword) {
				matches++
			}
		}
		if matches >= topicMinMatches {
			topics = append(topics, topic.name)
		}
	}
	if len(topics) == 0 {
		return append([]string(nil), fallbackTopics...)
	}
	return topics
}
