package telephony

import (
	"strings"

	"callcenter-platform/internal/calls"
)

var (
	interestedKeywords = []string{
		"interested", "yes", "sounds good", "let's do it", "schedule",
		"when can", "what time", "sign up", "demo", "more information",
	}
	notInterestedKeywords = []string{
		"not interested", "no thanks", "not right now", "remove me",
		"stop calling", "don't call", "unsubscribe",
	}
	callbackKeywords = []string{
		"call back", "later", "next week", "next month", "email me",
		"send information", "busy right now",
	}

	positiveWords = []string{
		"yes", "great", "interested", "good", "sounds", "help",
		"definitely", "perfect", "wonderful", "excellent", "thank",
	}
	negativeWords = []string{
		"no", "not", "busy", "don't", "won't", "can't", "sorry",
		"annoyed", "stop", "never", "bad", "terrible",
	}
)

// AnalyzeOutcome classifies a transcript by keyword matching on the lead's
// turns. Transcripts that match nothing are recorded as no_answer.
func AnalyzeOutcome(t []Utterance) calls.Outcome {
	if len(t) == 0 {
		return calls.OutcomeNoAnswer
	}
	if len(t) <= 2 && strings.Contains(joined(t, false), "voicemail") {
		return calls.OutcomeVoicemail
	}

	lead := joined(t, true)
	interested := countMatches(lead, interestedKeywords)
	notInterested := countMatches(lead, notInterestedKeywords)
	callback := countMatches(lead, callbackKeywords)

	switch {
	case interested > 0 && interested > notInterested:
		return calls.OutcomeInterested
	case notInterested > 0:
		return calls.OutcomeNotInterested
	case callback > 0:
		return calls.OutcomeCallback
	default:
		return calls.OutcomeNoAnswer
	}
}

// AnalyzeSentiment scores the lead's turns; a margin of two words is needed
// to leave neutral.
func AnalyzeSentiment(t []Utterance) calls.Sentiment {
	lead := joined(t, true)
	if lead == "" {
		return calls.SentimentNeutral
	}
	pos := countMatches(lead, positiveWords)
	neg := countMatches(lead, negativeWords)
	switch {
	case pos > neg+1:
		return calls.SentimentPositive
	case neg > pos+1:
		return calls.SentimentNegative
	default:
		return calls.SentimentNeutral
	}
}

// CompletionNote summarises how a finished call went.
func CompletionNote(answeredBy string, outcome calls.Outcome) string {
	switch {
	case answeredBy == "voicemail":
		return "Voicemail detected - message left"
	case answeredBy == "no-answer":
		return "No answer"
	case outcome == calls.OutcomeInterested:
		return "Lead expressed interest"
	case outcome == calls.OutcomeNotInterested:
		return "Lead not interested"
	case outcome == calls.OutcomeCallback:
		return "Lead requested callback"
	}
	return ""
}

// FormatTranscript renders utterances one per line as "speaker: text".
func FormatTranscript(t []Utterance) string {
	var b strings.Builder
	for i, u := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		speaker := u.Speaker
		if speaker == "" {
			speaker = "unknown"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(u.Text))
	}
	return b.String()
}

func joined(t []Utterance, leadOnly bool) string {
	parts := make([]string, 0, len(t))
	for _, u := range t {
		if leadOnly && u.Speaker != SpeakerLead {
			continue
		}
		parts = append(parts, u.Text)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}
