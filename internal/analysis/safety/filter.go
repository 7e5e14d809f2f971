package safety

import "strings"

// RefusalMessage is what the assistant says instead of answering a message
// that tripped the filter. It is persisted as a normal assistant turn.
const RefusalMessage = "I'm sorry, I cannot fulfill that request as it deviates from my professional persona."

// disallowedPhrases is a blunt, explainable blocklist: instruction-override
// and persona-break attempts plus basic SQL/script injection markers. False
// positives are acceptable; every match is recorded for audit.
var disallowedPhrases = []string{
	"ignore previous instructions",
	"ignore all instructions",
	"system prompt",
	"reveal your instructions",
	"act as",
	"you are now",
	"sql",
	"delete",
	"drop table",
	"<script>",
	"javascript:",
}

// Check matches the message against the blocklist, case-insensitively and on
// substrings. It returns the phrase that matched.
func Check(message string) (string, bool) {
	normalized := strings.ToLower(message)
	for _, phrase := range disallowedPhrases {
		if strings.Contains(normalized, phrase) {
			return phrase, true
		}
	}
	return "", false
}
