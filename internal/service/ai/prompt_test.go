package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/nwhitfield/foliochat/backend/internal/model/chat"
)

func TestBuildPromptIsDeterministic(t *testing.T) {
	in := PromptInput{
		Mode:        ModeConversational,
		Personality: "You are a cheerful assistant.",
		Documents:   []string{"Resume text A", "Resume text B"},
		History: []chat.Message{
			{Role: chat.RoleUser, Content: "hi", Timestamp: time.Unix(1, 0)},
			{Role: chat.RoleAssistant, Content: "hello", Timestamp: time.Unix(2, 0)},
		},
		Question: "What do you do?",
	}

	first := BuildPrompt(in)
	second := BuildPrompt(in)
	if first != second {
		t.Fatal("identical inputs must produce byte-identical prompts")
	}
}

func TestBuildPromptFirstTurnOmitsHistorySection(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Mode:      ModeConversational,
		Documents: []string{"10 years of Go experience"},
		Question:  "What is your experience with databases?",
	})

	if strings.Contains(prompt, "Recent Conversation") {
		t.Fatal("first turn must not contain a history section")
	}
	if !strings.Contains(prompt, "10 years of Go experience") {
		t.Fatal("prompt must contain the background document text")
	}
	if !strings.Contains(prompt, "User Question: What is your experience with databases?") {
		t.Fatal("prompt must contain the user question")
	}
}

func TestBuildPromptRendersHistoryLines(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Documents: []string{"background"},
		History: []chat.Message{
			{Role: chat.RoleUser, Content: "first question"},
			{Role: chat.RoleAssistant, Content: "first answer"},
		},
		Question: "second question",
	})

	if !strings.Contains(prompt, "## Recent Conversation:\nUser: first question\nAssistant: first answer") {
		t.Fatalf("history block malformed:\n%s", prompt)
	}
}

func TestBuildPromptEmptyDocumentsFallback(t *testing.T) {
	prompt := BuildPrompt(PromptInput{Question: "hello"})
	if !strings.Contains(prompt, "No resume information available yet.") {
		t.Fatal("empty document set must degrade to the placeholder sentence")
	}
}

func TestBuildPromptSimpleModeIgnoresConfiguredPersonality(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		Mode:        ModeSimple,
		Personality: "You are extremely chatty.",
		Question:    "hello",
	})
	if strings.Contains(prompt, "extremely chatty") {
		t.Fatal("simple mode must not use the configured personality")
	}
	if !strings.Contains(prompt, "fact-based assistant") {
		t.Fatal("simple mode must use the fixed terse persona")
	}
}

func TestBuildPromptDefaultPersonalityFallback(t *testing.T) {
	prompt := BuildPrompt(PromptInput{Question: "hello", Personality: "   "})
	if !strings.Contains(prompt, "helpful AI assistant representing a job seeker") {
		t.Fatal("blank personality must fall back to the built-in persona")
	}
}
