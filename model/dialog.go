package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DialogParticipant holds one side's preferences for a dialog. Each side
// mutates its own copy only.
type DialogParticipant struct {
	UserID                 string `gorm:"index;not null" json:"userId"`
	IsPinned               bool   `gorm:"default:false" json:"isPinned"`
	IsNotificationsEnabled bool   `gorm:"default:true" json:"isNotificationsEnabled"`
	IsSoundEnabled         bool   `gorm:"default:true" json:"isSoundEnabled"`
}

// Dialog is a two-party conversation. At most one dialog exists per
// unordered user pair.
type Dialog struct {
	ID        string            `gorm:"primaryKey" json:"id"`
	FromUser  DialogParticipant `gorm:"embedded;embeddedPrefix:from_" json:"fromUser"`
	ToUser    DialogParticipant `gorm:"embedded;embeddedPrefix:to_" json:"toUser"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (d *Dialog) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Participant returns the dialog side owned by userID.
func (d *Dialog) Participant(userID string) *DialogParticipant {
	if d.FromUser.UserID == userID {
		return &d.FromUser
	}
	if d.ToUser.UserID == userID {
		return &d.ToUser
	}
	return nil
}

// OtherUserID returns the counterpart of userID in the dialog.
func (d *Dialog) OtherUserID(userID string) string {
	if d.FromUser.UserID == userID {
		return d.ToUser.UserID
	}
	return d.FromUser.UserID
}

// HasParticipant reports whether userID is one of the dialog sides.
func (d *Dialog) HasParticipant(userID string) bool {
	return d.FromUser.UserID == userID || d.ToUser.UserID == userID
}

// Message is immutable after creation except for the read flag.
type Message struct {
	ID       string    `gorm:"primaryKey" json:"id"`
	DialogID string    `gorm:"index;not null" json:"dialogId"`
	SenderID string    `gorm:"index;not null" json:"senderId"`
	Text     string    `json:"text"`
	FileURL  string    `json:"file"`
	IsRead   bool      `gorm:"default:false" json:"isRead"`
	SentAt   time.Time `json:"sentAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
