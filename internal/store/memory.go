package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nwhitfield/foliochat/backend/internal/model/chat"
	"github.com/nwhitfield/foliochat/backend/internal/model/profile"
)

// Memory implements Store with mutex-guarded maps. It backs tests and local
// runs without a DATABASE_URL.
type Memory struct {
	mu        sync.RWMutex
	sessions  map[string]chat.Session
	messages  map[string][]chat.Message
	settings  profile.Settings
	profiles  map[string]profile.Profile
	documents map[string]profile.Document
	// profile id -> document ids, insertion ordered
	assignments map[string][]string
}

// NewMemory returns an empty in-memory store with default settings.
func NewMemory() *Memory {
	return &Memory{
		sessions:    make(map[string]chat.Session),
		messages:    make(map[string][]chat.Message),
		settings:    profile.DefaultSettings(),
		profiles:    make(map[string]profile.Profile),
		documents:   make(map[string]profile.Document),
		assignments: make(map[string][]string),
	}
}

func (m *Memory) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (m *Memory) SaveSession(_ context.Context, session *chat.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	m.sessions[session.ID] = *session
	if _, ok := m.messages[session.ID]; !ok {
		m.messages[session.ID] = make([]chat.Message, 0, 16)
	}
	return nil
}

func (m *Memory) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	delete(m.messages, sessionID)
	return nil
}

func (m *Memory) SessionsByUser(_ context.Context, userIdentifier string, limit int) ([]chat.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]chat.Session, 0)
	for _, session := range m.sessions {
		if session.UserIdentifier == userIdentifier {
			matched = append(matched, session)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].LastActivity.After(matched[j].LastActivity)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *Memory) AppendMessage(_ context.Context, message *chat.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[message.SessionID]; !ok {
		return ErrSessionNotFound
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	m.messages[message.SessionID] = append(m.messages[message.SessionID], *message)
	return nil
}

func (m *Memory) RecentMessages(_ context.Context, sessionID string, limit int) ([]chat.Message, error) {
	all, err := m.Messages(context.Background(), sessionID)
	if err != nil {
		return nil, err
	}

	// Reverse into newest-first order, then cap.
	recent := make([]chat.Message, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		recent = append(recent, all[i])
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (m *Memory) Messages(_ context.Context, sessionID string) ([]chat.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages, ok := m.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Timestamp.Before(copied[j].Timestamp)
	})
	return copied, nil
}

func (m *Memory) GetSettings(_ context.Context) (profile.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

func (m *Memory) SaveSettings(_ context.Context, settings *profile.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings.UpdatedAt = time.Now().UTC()
	m.settings = *settings
	return nil
}

func (m *Memory) DefaultProfile(_ context.Context) (profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.IsDefault {
			return p, nil
		}
	}
	return profile.Profile{}, ErrProfileNotFound
}

func (m *Memory) GetProfile(_ context.Context, id string) (profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return profile.Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (m *Memory) ListProfiles(_ context.Context) ([]profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]profile.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (m *Memory) SaveProfile(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.profiles[p.ID] = *p
	return nil
}

func (m *Memory) ActiveDocuments(_ context.Context, profileID string) ([]profile.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]profile.Document, 0)
	for _, id := range m.assignments[profileID] {
		doc, ok := m.documents[id]
		if ok && doc.Active {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *Memory) GetDocument(_ context.Context, id string) (profile.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return profile.Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

func (m *Memory) SaveDocument(_ context.Context, doc *profile.Document, profileIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	m.documents[doc.ID] = *doc
	for _, pid := range profileIDs {
		if !containsString(m.assignments[pid], doc.ID) {
			m.assignments[pid] = append(m.assignments[pid], doc.ID)
		}
	}
	return nil
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
