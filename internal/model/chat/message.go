package chat

import "time"

// Message roles. The set is closed: every persisted turn is one of these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a session. Messages are append-only and ordered by
// timestamp; assistant messages carry the timestamp captured when generation
// started, not when it finished.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"size:100;index" json:"session_id"`
	Role      string    `gorm:"size:20" json:"role"`
	Content   string    `gorm:"type:text" json:"content"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}
