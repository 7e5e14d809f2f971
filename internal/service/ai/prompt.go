package ai

import (
	"strings"

	"github.com/nwhitfield/foliochat/backend/internal/model/chat"
)

// Persona modes. Conversational is the default; simple ignores the operator
// personality entirely and answers tersely.
const (
	ModeConversational = "conversational"
	ModeSimple         = "simple"
)

const simplePersona = `You are a professional, fact-based assistant representing a job seeker.
Your goal is to provide clear, concise, and direct answers based strictly on the provided resume information.
Use bullet points for lists and keep paragraphs short.
Avoid conversational filler, small talk, or emotional language.
Focus on delivering the facts efficiently.`

const defaultPersona = `You are a helpful AI assistant representing a job seeker.
Be friendly, professional, and enthusiastic about discussing your background and experience.
Use natural, conversational language and share specific examples when relevant.`

const noBackgroundPlaceholder = "No resume information available yet."

const backgroundSeparator = "\n\n---\n\n"

// PromptInput carries everything the assembler needs. It is an immutable
// snapshot: persona configuration and documents are read once per turn, never
// mid-generation.
type PromptInput struct {
	Mode        string
	Personality string
	Documents   []string
	History     []chat.Message
	Question    string
}

// BuildPrompt assembles the exact prompt text sent to the generation backend.
// It is stateless and side-effect-free: identical inputs produce an identical
// prompt.
func BuildPrompt(in PromptInput) string {
	personality := in.Personality
	if in.Mode == ModeSimple {
		personality = simplePersona
	} else if strings.TrimSpace(personality) == "" {
		personality = defaultPersona
	}

	background := noBackgroundPlaceholder
	texts := make([]string, 0, len(in.Documents))
	for _, doc := range in.Documents {
		if doc != "" {
			texts = append(texts, doc)
		}
	}
	if len(texts) > 0 {
		background = strings.Join(texts, backgroundSeparator)
	}

	historyLines := make([]string, 0, len(in.History))
	for _, msg := range in.History {
		speaker := "User"
		if msg.Role == chat.RoleAssistant {
			speaker = "Assistant"
		}
		historyLines = append(historyLines, speaker+": "+msg.Content)
	}

	var b strings.Builder
	b.WriteString(personality)

	if len(historyLines) > 0 {
		b.WriteString(`

## INSTRUCTIONS:
1. You are answering questions on behalf of the person described in the "Background Information" below.
2. Answer in the first person (using "I", "my", "me") as if you ARE this person, or as their dedicated assistant (depending on the persona defined above).
3. USE ONLY the information provided in the "Background Information" section to answer questions about background, skills, education, and experience.
4. If the answer is not in the text below, say "I don't have that specific detail in my current records" or "That information isn't listed in my resume."
5. DO NOT say "As an AI" or "I don't have a personal background." Pretend the background information is YOUR background.
6. If asked about school, work, or skills, look for the relevant section in the text below and summarize it naturally.

## Background Information (Resume/CV):
`)
		b.WriteString(background)
		b.WriteString("\n\n## Recent Conversation:\n")
		b.WriteString(strings.Join(historyLines, "\n"))
		b.WriteString("\n\n## Current Message:\nUser Question: ")
		b.WriteString(in.Question)
		b.WriteString("\n\nPlease respond to the user question strictly following the persona and instructions above.")
		return b.String()
	}

	// First turn of a session: no history block at all.
	b.WriteString(`

## INSTRUCTIONS:
1. You are answering questions on behalf of the person described in the "Background Information" below.
2. USE ONLY the information provided in the "Background Information" section.
3. DO NOT break character or say you are an AI unless explicitly asked about your technology.
4. If asked about education or experience, answer based strictly on the text below.

## Background Information (Resume/CV):
`)
	b.WriteString(background)
	b.WriteString("\n\nUser Question: ")
	b.WriteString(in.Question)
	b.WriteString("\n\nPlease respond to the user question strictly following the persona and instructions above.")
	return b.String()
}
