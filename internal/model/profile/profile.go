package profile

import "time"

// Profile groups background documents under a named persona variant. Exactly
// one profile is marked default; sessions that do not select a profile fall
// back to it.
type Profile struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Name              string    `gorm:"size:100;uniqueIndex" json:"name"`
	Description       string    `gorm:"type:text" json:"description"`
	DisplayName       string    `gorm:"size:100" json:"display_name"`
	Introduction      string    `gorm:"type:text" json:"introduction"`
	IsDefault         bool      `json:"is_default"`
	PrimaryDocumentID string    `gorm:"size:36" json:"primary_document_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Documents []Document `gorm:"many2many:profile_documents;" json:"-"`
}

// Document is an uploaded background artifact (resume/CV). Content holds the
// text extracted by the upload pipeline; it may be empty when extraction
// failed.
type Document struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Filename         string    `gorm:"size:255" json:"filename"`
	OriginalFilename string    `gorm:"size:255" json:"original_filename"`
	FilePath         string    `gorm:"size:500" json:"file_path"`
	Content          string    `gorm:"type:text" json:"content"`
	Active           bool      `json:"active"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// Settings is the operator-editable chatbot configuration singleton. A copy
// is taken at the start of each turn so concurrent admin edits never race a
// generation in flight.
type Settings struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	ChatbotName       string    `gorm:"size:100" json:"chatbot_name"`
	PersonalityPrompt string    `gorm:"type:text" json:"personality_prompt"`
	ChatbotIcon       string    `gorm:"size:255" json:"chatbot_icon"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings row created on first boot.
func DefaultSettings() Settings {
	return Settings{
		ChatbotName: "AI Assistant",
		ChatbotIcon: "default-bot-icon.svg",
	}
}
