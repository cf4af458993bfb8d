package web

import "strings"

// Badge tones; anything the agent returns outside these renders "unknown".
const toneUnknown = "unknown"

// categoryTone maps a category label onto its badge, case-insensitively.
func categoryTone(category string) string {
	switch strings.ToLower(category) {
	case "technical", "billing", "general":
		return strings.ToLower(category)
	}
	return toneUnknown
}

func sentimentTone(sentiment string) string {
	switch strings.ToLower(sentiment) {
	case "positive", "negative", "neutral":
		return strings.ToLower(sentiment)
	}
	return toneUnknown
}
