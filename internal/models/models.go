package models

import "time"

// Role: "admin" | "stakeholder"
type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name         string
	Email        string `gorm:"uniqueIndex;not null"` // unique account identity
	PasswordHash []byte
	Role         string `gorm:"default:stakeholder"`
	IsActive     bool   `gorm:"default:true"`

	// Weak reference: which questionnaire this stakeholder is expected to
	// complete. Clearing it never touches existing sessions.
	AssignedQuestionnaireID *string `gorm:"size:36"`
}

type Questionnaire struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Title       string `gorm:"not null"`
	Description string
	CreatedBy   *string `gorm:"size:36"` // user id of the admin who created it
	IsActive    bool    `gorm:"default:true"`

	Questions []Question
}

// Type: "text" | "textarea" | "choice" | "checkbox" | "rating"
type Question struct {
	ID              string `gorm:"primaryKey;size:36"`
	QuestionnaireID string `gorm:"size:36;index"`

	Position int    `gorm:"not null"` // dense, 1-based within the questionnaire
	Text     string `gorm:"not null"`
	Type     string `gorm:"default:text"`
	Options  string // JSON array for choice-style questions, empty otherwise
	Required bool   `gorm:"default:true"`
}

// Session tracks one stakeholder's walk through one questionnaire.
// At most one row per (user, questionnaire) pair.
// Invariants: 0 <= CurrentQuestionIndex <= TotalQuestions, and
// IsCompleted is true iff CurrentQuestionIndex == TotalQuestions.
type Session struct {
	ID        string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UserID          string `gorm:"size:36;uniqueIndex:idx_sessions_user_questionnaire"`
	QuestionnaireID string `gorm:"size:36;uniqueIndex:idx_sessions_user_questionnaire"`

	CurrentQuestionIndex int
	TotalQuestions       int // snapshot of the question count at creation time
	IsCompleted          bool
	ExpiresAt            *time.Time
}

// Answer rows are append-only; no update or delete path exists.
type Answer struct {
	ID         string `gorm:"primaryKey;size:36"`
	SessionID  string `gorm:"size:36;index"`
	QuestionID string `gorm:"size:36"`

	// QuestionText is captured at answer time so the report can still join
	// answers to questions after the questionnaire has been deleted.
	QuestionText string
	ResponseText string `gorm:"not null"`
	AnsweredAt   time.Time
}

type AuditLog struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ActorID    *string `gorm:"size:36"`
	Action     string  `gorm:"not null"`
	ObjectType string
	ObjectID   string `gorm:"size:36"`
	Note       string
}
