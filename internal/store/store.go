package store

import (
	"context"
	"errors"

	"github.com/nwhitfield/foliochat/backend/internal/model/chat"
	"github.com/nwhitfield/foliochat/backend/internal/model/profile"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrDocumentNotFound = errors.New("document not found")
)

// Store is the durable record of sessions, messages and persona configuration.
// Each mutation is a single atomic unit of work; sessions own disjoint rows so
// no cross-session locking is needed above this layer.
type Store interface {
	GetSession(ctx context.Context, sessionID string) (chat.Session, error)
	SaveSession(ctx context.Context, session *chat.Session) error
	DeleteSession(ctx context.Context, sessionID string) error
	SessionsByUser(ctx context.Context, userIdentifier string, limit int) ([]chat.Session, error)

	AppendMessage(ctx context.Context, message *chat.Message) error
	// RecentMessages returns up to limit messages ordered newest first.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error)
	// Messages returns the full transcript in chronological order.
	Messages(ctx context.Context, sessionID string) ([]chat.Message, error)

	GetSettings(ctx context.Context) (profile.Settings, error)
	SaveSettings(ctx context.Context, settings *profile.Settings) error

	DefaultProfile(ctx context.Context) (profile.Profile, error)
	GetProfile(ctx context.Context, id string) (profile.Profile, error)
	ListProfiles(ctx context.Context) ([]profile.Profile, error)
	SaveProfile(ctx context.Context, p *profile.Profile) error

	ActiveDocuments(ctx context.Context, profileID string) ([]profile.Document, error)
	GetDocument(ctx context.Context, id string) (profile.Document, error)
	SaveDocument(ctx context.Context, doc *profile.Document, profileIDs ...string) error
}
