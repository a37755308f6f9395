package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session client types. "test" sessions are hidden from session listings.
const (
	ClientTypeWeb     = "web"
	ClientTypeDesktop = "desktop"
	ClientTypeTest    = "test"
	ClientTypeUnknown = "unknown"
)

// User struct
type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	PhotoURL  string `json:"photoURL"`
	Role      string `json:"role"`

	IsActivated bool `gorm:"default:false" json:"isActivated"`

	// IsOnline stays NULL while the user hides their last activity.
	IsOnline     *bool      `json:"isOnline"`
	LastActivity *time.Time `json:"lastActivity"`

	Otp_enabled bool `gorm:"default:false"`
	Otp_secret  string

	Settings UserSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`

	Sessions  []Session        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Blacklist []BlacklistEntry `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// DisplayName is the label shown for the user in dialog listings.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type UserSettings struct {
	Theme    string `gorm:"default:light" json:"theme"`
	Language string `gorm:"default:en" json:"language"`

	ChatsNotificationsEnabled bool `gorm:"default:true" json:"chatsNotificationsEnabled"`
	ChatsSoundEnabled         bool `gorm:"default:true" json:"chatsSoundEnabled"`

	IsDisplayNameVisible bool `gorm:"default:true" json:"isDisplayNameVisible"`
	IsEmailVisible       bool `gorm:"default:true" json:"isEmailVisible"`
	LastActivityMode     bool `gorm:"default:true" json:"lastActivityMode"`
}

// Session is one authenticated login instance holding a bearer token.
type Session struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;not null" json:"-"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	IPAddress string    `json:"ipAddress"`
	Label     string    `json:"label"`
	Type      string    `gorm:"default:unknown" json:"type"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// BlacklistEntry marks BlacklistedUserID as blocked by UserID.
type BlacklistEntry struct {
	ID                string    `gorm:"primaryKey" json:"-"`
	UserID            string    `gorm:"index;not null" json:"-"`
	BlacklistedUserID string    `gorm:"index;not null" json:"blacklistedUserId"`
	BlockedAt         time.Time `json:"blockedAt"`
}

func (b *BlacklistEntry) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
