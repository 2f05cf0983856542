package analysis

// Result bundles every derived field for one transcript.
type Result struct {
	SummaryText string    `json:"summaryText"`
	ActionItems []string  `json:"actionItems"`
	KeyTopics   []string  `json:"keyTopics"`
	Sentiment   Sentiment `json:"sentiment"`
	Decisions   []string  `json:"decisions"`
	Insights    Insights  `json:"insights"`
}

// Analyze runs every extractor over the transcript.
func Analyze(transcript string, participants []string, durationSeconds float64) Result {
	return Result{
		SummaryText: Summary(transcript),
		ActionItems: ActionItems(transcript, participants),
		KeyTopics:   KeyTopics(transcript),
		Sentiment:   ScoreSentiment(transcript),
		Decisions:   Decisions(transcript),
		Insights:    ComputeInsights(transcript, participants, durationSeconds),
	}
}
