package models

import "time"

// Session is one training session. At most one session has FinishedAt unset.
type Session struct {
	BaseModel
	Name       string     `gorm:"size:255;not null" json:"name"`
	FinishedAt *time.Time `gorm:"index" json:"finished_at,omitempty"`
}

// TableName sessions table.
func (Session) TableName() string {
	return "sessions"
}

// IsActive reports whether the session is not finished yet.
func (s *Session) IsActive() bool {
	return s.FinishedAt == nil
}

// QuestionType splits a catalog into the part answered before the session
// and the part answered after it.
type QuestionType string

const (
	QuestionBefore QuestionType = "BEFORE"
	QuestionAfter  QuestionType = "AFTER"
)

// Question is one catalog entry. OrderIndex is 1-based and unique within
// (SessionID, Type).
type Question struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	SessionID  uint         `gorm:"not null;uniqueIndex:idx_questions_session_type_order,priority:1" json:"session_id"`
	Type       QuestionType `gorm:"size:16;not null;uniqueIndex:idx_questions_session_type_order,priority:2" json:"type"`
	OrderIndex int          `gorm:"not null;uniqueIndex:idx_questions_session_type_order,priority:3" json:"order_index"`
	Text       string       `gorm:"size:1024;not null" json:"text"`
	CreatedAt  time.Time    `json:"created_at"`
}

// TableName questions table.
func (Question) TableName() string {
	return "questions"
}

// Journal is one answer. There is at most one row per (UserID, SessionID,
// QuestionID); CreatedAt is the time of the latest answer.
type Journal struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_journals_user_session_question,priority:1" json:"user_id"`
	SessionID  uint      `gorm:"not null;uniqueIndex:idx_journals_user_session_question,priority:2;index" json:"session_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_journals_user_session_question,priority:3" json:"question_id"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName journals table.
func (Journal) TableName() string {
	return "journals"
}

// Participant is a user with the number of distinct sessions it journaled in.
type Participant struct {
	User         User  `json:"user"`
	SessionCount int64 `json:"session_count"`
}

// JournalEntry is a journal joined with its question.
type JournalEntry struct {
	Journal
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	OrderIndex   int          `json:"order_index"`
}

// SessionJournals are the journals of one user within one session.
type SessionJournals struct {
	Session      Session        `json:"session"`
	LastAnswerAt time.Time      `json:"last_answer_at"`
	Entries      []JournalEntry `json:"entries"`
}

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&Question{},
		&Journal{},
	}
}
