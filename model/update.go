package model

// UserUpdate carries the optional profile fields a user may change.
// Nil means "leave as is".
type UserUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Username  *string `json:"username"`

	Theme    *string `json:"theme"`
	Language *string `json:"language"`

	ChatsNotificationsEnabled *bool `json:"chatsNotificationsEnabled"`
	ChatsSoundEnabled         *bool `json:"chatsSoundEnabled"`

	IsDisplayNameVisible *bool `json:"isDisplayNameVisible"`
	IsEmailVisible       *bool `json:"isEmailVisible"`
	LastActivityMode     *bool `json:"lastActivityMode"`
}

// ApplyUserUpdate merges set fields into the user, one explicit
// assignment per field.
func ApplyUserUpdate(u *User, upd UserUpdate) {
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Theme != nil {
		u.Settings.Theme = *upd.Theme
	}
	if upd.Language != nil {
		u.Settings.Language = *upd.Language
	}
	if upd.ChatsNotificationsEnabled != nil {
		u.Settings.ChatsNotificationsEnabled = *upd.ChatsNotificationsEnabled
	}
	if upd.ChatsSoundEnabled != nil {
		u.Settings.ChatsSoundEnabled = *upd.ChatsSoundEnabled
	}
	if upd.IsDisplayNameVisible != nil {
		u.Settings.IsDisplayNameVisible = *upd.IsDisplayNameVisible
	}
	if upd.IsEmailVisible != nil {
		u.Settings.IsEmailVisible = *upd.IsEmailVisible
	}
	if upd.LastActivityMode != nil {
		u.Settings.LastActivityMode = *upd.LastActivityMode
	}
}

// DialogUpdate carries the per-participant dialog preferences.
type DialogUpdate struct {
	IsPinned               *bool `json:"isPinned"`
	IsNotificationsEnabled *bool `json:"isNotificationsEnabled"`
	IsSoundEnabled         *bool `json:"isSoundEnabled"`
}
