package models

import (
	"strings"

	"gorm.io/gorm"
)

// Role of a chat user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RolePlayer Role = "PLAYER"
	RoleBanned Role = "BANNED"
)

// User is a chat participant together with its open conversation state.
type User struct {
	BaseModel
	TelegramID   int64       `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username     string      `gorm:"size:64;index" json:"username"`
	FirstName    string      `gorm:"size:128" json:"first_name"`
	LastName     string      `gorm:"size:128" json:"last_name"`
	LanguageCode string      `gorm:"size:16" json:"language_code"`
	Role         Role        `gorm:"size:16;not null;default:'PLAYER';index" json:"role"`
	StateRecord  StateRecord `gorm:"embedded;embeddedPrefix:state_" json:"-"`
}

// TableName users table.
func (User) TableName() string {
	return "users"
}

// BeforeCreate defaults the role and state.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RolePlayer
	}
	if u.StateRecord.Kind == "" {
		u.StateRecord = EncodeState(NoState{})
	}
	return nil
}

// State decodes the open conversation state. A corrupt record decodes as
// NoState together with an error.
func (u *User) State() (ConversationState, error) {
	return u.StateRecord.Decode()
}

// SetState replaces the open conversation state.
func (u *User) SetState(s ConversationState) {
	u.StateRecord = EncodeState(s)
}

// ClearState drops any open flow.
func (u *User) ClearState() {
	u.SetState(NoState{})
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsBanned reports whether the user is banned.
func (u *User) IsBanned() bool {
	return u.Role == RoleBanned
}

// DisplayName renders "First Last (@username)", using whatever parts exist.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	switch {
	case name != "" && u.Username != "":
		return name + " (@" + u.Username + ")"
	case name != "":
		return name
	case u.Username != "":
		return "@" + u.Username
	default:
		return "Unknown"
	}
}
