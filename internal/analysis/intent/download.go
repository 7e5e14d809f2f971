package intent

import "strings"

// downloadPhrases are the fixed request phrases that signal the visitor wants
// a copy of the resume document.
var downloadPhrases = []string{
	"download",
	"see resume",
	"view resume",
	"send resume",
	"share resume",
	"resume file",
	"resume pdf",
	"get resume",
	"show resume",
	"copy of resume",
	"have your resume",
}

// WantsDownload reports whether the message asks for a downloadable copy of
// the background document. Matching is case-insensitive on substrings.
func WantsDownload(message string) bool {
	normalized := strings.ToLower(message)
	for _, phrase := range downloadPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// LinkText renders the follow-up sentence appended after the generated
// answer. It is never part of the prompt, so the model cannot alter or omit
// the link.
func LinkText(downloadURL string) string {
	return "\n\nYou can download my resume here: " + downloadURL
}
