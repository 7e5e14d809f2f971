package chat

import "time"

// Session tracks one visitor conversation. The ID is the externally visible
// session identifier, generated once per connection or supplied by the client
// for resumption, and never changes afterwards.
type Session struct {
	ID             string    `gorm:"primaryKey;size:100" json:"session_id"`
	IPAddress      string    `gorm:"size:45" json:"ip_address,omitempty"`
	Location       string    `gorm:"size:255" json:"location,omitempty"`
	UserAgent      string    `gorm:"size:500" json:"user_agent,omitempty"`
	UserIdentifier string    `gorm:"size:100;index" json:"user_identifier,omitempty"`
	Title          string    `gorm:"size:100" json:"title,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	LastActivity   time.Time `gorm:"index" json:"last_activity"`
	MessageCount   int       `json:"message_count"`

	Messages []Message `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// Touch updates the activity timestamp.
func (s *Session) Touch(at time.Time) {
	s.LastActivity = at
}
