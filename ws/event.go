package ws

import (
	"time"

	"fly-messenger/model"
	"fly-messenger/service"
)

// Inbound event types.
const (
	EventSendMessage        = "SEND_MESSAGE"
	EventReadMessage        = "READ_MESSAGE"
	EventToggleOnlineStatus = "TOGGLE_ONLINE_STATUS"
	EventTyping             = "TYPING"
	EventUntyping           = "UNTYPING"
	EventDestroySession     = "DESTROY_SESSION"
)

// Outbound event types.
const (
	EventReceiveMessage = "RECEIVE_MESSAGE"
	EventUserBlocked    = "USER_BLOCKED"
	EventUserLogout     = "USER_LOGOUT"
)

// FilePayload is an inline file attachment on SEND_MESSAGE.
type FilePayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Data string `json:"data"`
}

// InboundEvent is one client frame. Type selects which of the other fields
// are meaningful.
type InboundEvent struct {
	Type        string       `json:"type"`
	DialogID    string       `json:"dialogId"`
	RecipientID string       `json:"recipientId"`
	MessageID   string       `json:"messageId"`
	SessionID   string       `json:"sessionId"`
	Text        string       `json:"text"`
	File        *FilePayload `json:"file"`
	Status      bool         `json:"status"`
}

type DialogData struct {
	IsNotificationsEnabled bool `json:"isNotificationsEnabled"`
	IsSoundEnabled         bool `json:"isSoundEnabled"`
}

type ReceiveMessageEvent struct {
	Type       string                  `json:"type"`
	Message    *model.Message          `json:"message"`
	Dialog     *service.DialogSnapshot `json:"dialog"`
	DialogData DialogData              `json:"dialogData"`
	UserID     string                  `json:"userId"`
}

type ReadMessageEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	DialogID  string `json:"dialogId"`
}

type OnlineStatusEvent struct {
	Type         string     `json:"type"`
	UserID       string     `json:"userId"`
	Status       *bool      `json:"status"`
	LastActivity *time.Time `json:"lastActivity"`
}

type TypingEvent struct {
	Type     string `json:"type"`
	DialogID string `json:"dialogId"`
}

// LogoutAckEvent confirms a DESTROY_SESSION to the issuing user with the
// refreshed session list.
type LogoutAckEvent struct {
	Type     string          `json:"type"`
	Success  bool            `json:"success"`
	Sessions []model.Session `json:"sessions"`
}

// ForcedLogoutEvent tells the destroyed session's device to log out.
type ForcedLogoutEvent struct {
	Type             string `json:"type"`
	CurrentSessionID string `json:"currentSessionId"`
	SessionID        string `json:"sessionId"`
}

type UserBlockedEvent struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	IsBlocked bool   `json:"isBlocked"`
}
