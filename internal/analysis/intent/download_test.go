package intent

import (
	"strings"
	"testing"
)

func TestWantsDownloadMatchesPhrases(t *testing.T) {
	positive := []string{
		"Can I download your CV?",
		"please SEND RESUME to me",
		"where do I get resume?",
		"could I have your resume",
	}
	for _, msg := range positive {
		if !WantsDownload(msg) {
			t.Fatalf("expected download intent for %q", msg)
		}
	}
}

func TestWantsDownloadIgnoresOtherQuestions(t *testing.T) {
	negative := []string{
		"Tell me about your education",
		"What projects have you shipped?",
	}
	for _, msg := range negative {
		if WantsDownload(msg) {
			t.Fatalf("unexpected download intent for %q", msg)
		}
	}
}

func TestLinkText(t *testing.T) {
	text := LinkText("https://example.com/uploads/resumes/cv.pdf")
	if !strings.HasPrefix(text, "\n\n") {
		t.Fatal("link text must be separated from the answer")
	}
	if !strings.Contains(text, "https://example.com/uploads/resumes/cv.pdf") {
		t.Fatalf("link text missing url: %q", text)
	}
}
