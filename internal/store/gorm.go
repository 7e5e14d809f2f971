package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nwhitfield/foliochat/backend/internal/model/chat"
	"github.com/nwhitfield/foliochat/backend/internal/model/profile"
)

// Gorm implements Store on top of PostgreSQL.
type Gorm struct {
	db *gorm.DB
}

// OpenGorm connects to the database, applies migrations and configures the
// connection pool.
func OpenGorm(dsn string, debug bool) (*Gorm, error) {
	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(
		&chat.Session{},
		&chat.Message{},
		&profile.Settings{},
		&profile.Profile{},
		&profile.Document{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	return &Gorm{db: db}, nil
}

// Close releases the underlying connection pool.
func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *Gorm) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	var session chat.Session
	err := g.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, err
}

func (g *Gorm) SaveSession(ctx context.Context, session *chat.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	return g.db.WithContext(ctx).Save(session).Error
}

func (g *Gorm) DeleteSession(ctx context.Context, sessionID string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&chat.Message{}, "session_id = ?", sessionID).Error; err != nil {
			return err
		}
		result := tx.Delete(&chat.Session{}, "id = ?", sessionID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}

func (g *Gorm) SessionsByUser(ctx context.Context, userIdentifier string, limit int) ([]chat.Session, error) {
	var sessions []chat.Session
	err := g.db.WithContext(ctx).
		Where("user_identifier = ?", userIdentifier).
		Order("last_activity DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (g *Gorm) AppendMessage(ctx context.Context, message *chat.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	return g.db.WithContext(ctx).Create(message).Error
}

func (g *Gorm) RecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error) {
	var messages []chat.Message
	err := g.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (g *Gorm) Messages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	var messages []chat.Message
	err := g.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Find(&messages).Error
	return messages, err
}

func (g *Gorm) GetSettings(ctx context.Context) (profile.Settings, error) {
	var settings profile.Settings
	err := g.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = profile.DefaultSettings()
		if err := g.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return profile.Settings{}, err
		}
		return settings, nil
	}
	return settings, err
}

func (g *Gorm) SaveSettings(ctx context.Context, settings *profile.Settings) error {
	return g.db.WithContext(ctx).Save(settings).Error
}

func (g *Gorm) DefaultProfile(ctx context.Context) (profile.Profile, error) {
	var p profile.Profile
	err := g.db.WithContext(ctx).Where("is_default = ?", true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return profile.Profile{}, ErrProfileNotFound
	}
	return p, err
}

func (g *Gorm) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	var p profile.Profile
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return profile.Profile{}, ErrProfileNotFound
	}
	return p, err
}

func (g *Gorm) ListProfiles(ctx context.Context) ([]profile.Profile, error) {
	var profiles []profile.Profile
	err := g.db.WithContext(ctx).Order("created_at DESC").Find(&profiles).Error
	return profiles, err
}

func (g *Gorm) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return g.db.WithContext(ctx).Save(p).Error
}

func (g *Gorm) ActiveDocuments(ctx context.Context, profileID string) ([]profile.Document, error) {
	var p profile.Profile
	err := g.db.WithContext(ctx).Preload("Documents", "active = ?", true).
		Where("id = ?", profileID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return p.Documents, nil
}

func (g *Gorm) GetDocument(ctx context.Context, id string) (profile.Document, error) {
	var doc profile.Document
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return profile.Document{}, ErrDocumentNotFound
	}
	return doc, err
}

func (g *Gorm) SaveDocument(ctx context.Context, doc *profile.Document, profileIDs ...string) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(doc).Error; err != nil {
			return err
		}
		if len(profileIDs) == 0 {
			return nil
		}
		var profiles []profile.Profile
		if err := tx.Where("id IN ?", profileIDs).Find(&profiles).Error; err != nil {
			return err
		}
		for i := range profiles {
			if err := tx.Model(&profiles[i]).Association("Documents").Append(doc); err != nil {
				return err
			}
		}
		return nil
	})
}
