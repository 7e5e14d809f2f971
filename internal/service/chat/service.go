package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nwhitfield/foliochat/backend/internal/model/chat"
	"github.com/nwhitfield/foliochat/backend/internal/store"
)

// ErrSessionNotFound mirrors the store sentinel for callers that do not talk
// to the store directly.
var ErrSessionNotFound = store.ErrSessionNotFound

// titleLimit caps the derived session title length (in runes).
const titleLimit = 50

// historyLimit bounds how many recent messages feed the prompt.
const historyLimit = 10

// Service owns conversation state: session lifecycle, message persistence and
// the invariants tying them together (activity timestamps, message counts,
// title derivation).
type Service struct {
	store store.Store
}

// NewService wraps the given store.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// SessionMeta carries the connection attributes recorded when a session is
// first created.
type SessionMeta struct {
	IPAddress      string
	Location       string
	UserAgent      string
	UserIdentifier string
}

// ResolveSession loads the session for the given identifier, creating it when
// absent. An empty identifier gets a fresh UUID. The identifier is immutable
// once assigned.
func (s *Service) ResolveSession(ctx context.Context, sessionID string, meta SessionMeta) (chat.Session, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err == nil {
		return session, nil
	}
	if err != store.ErrSessionNotFound {
		return chat.Session{}, err
	}

	now := time.Now().UTC()
	session = chat.Session{
		ID:             sessionID,
		IPAddress:      meta.IPAddress,
		Location:       meta.Location,
		UserAgent:      meta.UserAgent,
		UserIdentifier: meta.UserIdentifier,
		StartedAt:      now,
		LastActivity:   now,
	}
	if err := s.store.SaveSession(ctx, &session); err != nil {
		return chat.Session{}, err
	}
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	return s.store.GetSession(ctx, sessionID)
}

// RecordUserMessage persists an inbound message and updates the session's
// activity timestamp and message count.
func (s *Service) RecordUserMessage(ctx context.Context, sessionID, content string) (chat.Message, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}

	now := time.Now().UTC()
	message := chat.Message{
		SessionID: sessionID,
		Role:      chat.RoleUser,
		Content:   content,
		Timestamp: now,
	}
	if err := s.store.AppendMessage(ctx, &message); err != nil {
		return chat.Message{}, err
	}

	session.Touch(now)
	session.MessageCount++
	if err := s.store.SaveSession(ctx, &session); err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

// RecordAssistantMessage persists the assistant's side of a turn using the
// timestamp captured when generation started, so ordering reflects
// turn-taking even under slow generation. On the session's first exchange it
// also derives the title from the user message — exactly once, never
// overwritten.
func (s *Service) RecordAssistantMessage(ctx context.Context, sessionID, content string, startedAt time.Time, userMessage string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	message := chat.Message{
		SessionID: sessionID,
		Role:      chat.RoleAssistant,
		Content:   content,
		Timestamp: startedAt,
	}
	if err := s.store.AppendMessage(ctx, &message); err != nil {
		return err
	}

	session.MessageCount++
	if session.MessageCount <= 2 && session.Title == "" {
		session.Title = DeriveTitle(userMessage)
	}
	return s.store.SaveSession(ctx, &session)
}

// DeriveTitle truncates the first user message to the title limit, appending
// an ellipsis when cut.
func DeriveTitle(userMessage string) string {
	runes := []rune(userMessage)
	if len(runes) <= titleLimit {
		return userMessage
	}
	return string(runes[:titleLimit]) + "..."
}

// RecentHistory returns up to the last ten messages in chronological order,
// for context-window assembly.
func (s *Service) RecentHistory(ctx context.Context, sessionID string) ([]chat.Message, error) {
	recent, err := s.store.RecentMessages(ctx, sessionID, historyLimit)
	if err != nil {
		return nil, err
	}

	// Fetched newest first; reverse into chronological order.
	history := make([]chat.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		history = append(history, recent[i])
	}
	return history, nil
}

// ListHistory returns the user's sessions ordered by most recent activity,
// capped at 50. An empty identifier yields an empty list.
func (s *Service) ListHistory(ctx context.Context, userIdentifier string) ([]chat.Session, error) {
	if userIdentifier == "" {
		return []chat.Session{}, nil
	}
	return s.store.SessionsByUser(ctx, userIdentifier, 50)
}

// Transcript returns a session and its full message list in chronological
// order.
func (s *Service) Transcript(ctx context.Context, sessionID string) (chat.Session, []chat.Message, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Session{}, nil, err
	}
	messages, err := s.store.Messages(ctx, sessionID)
	if err != nil {
		return chat.Session{}, nil, err
	}
	return session, messages, nil
}

// DeleteSession removes a session and all of its messages.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	return s.store.DeleteSession(ctx, sessionID)
}
