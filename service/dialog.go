package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"fly-messenger/apperr"
	"fly-messenger/model"

	"gorm.io/gorm"
)

// PinnedDialogLimit caps pinned dialogs per user across all their dialogs.
const PinnedDialogLimit = 10

// UserInDialog is the counterpart user as rendered inside a dialog snapshot.
type UserInDialog struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	PhotoURL     string     `json:"photoURL"`
	IsBlocked    bool       `json:"isBlocked"`
	IsOnline     *bool      `json:"isOnline"`
	LastActivity *time.Time `json:"lastActivity"`
}

// DialogSnapshot is the dialog as seen from one participant's perspective.
type DialogSnapshot struct {
	ID                     string          `json:"id"`
	Label                  string          `json:"label"`
	User                   UserInDialog    `json:"user"`
	Images                 []string        `json:"images"`
	UnreadMessages         int64           `json:"unreadMessages"`
	IsPinned               bool            `json:"isPinned"`
	IsNotificationsEnabled bool            `json:"isNotificationsEnabled"`
	IsSoundEnabled         bool            `json:"isSoundEnabled"`
	LastMessage            *model.Message  `json:"lastMessage"`
	Messages               []model.Message `json:"messages"`
	IsMeBlocked            bool            `json:"isMeBlocked"`
}

// DialogService owns two-party conversation records and their
// per-participant preferences.
type DialogService struct {
	db        *gorm.DB
	users     *UserService
	messages  *MessageService
	blacklist *BlacklistService
}

func NewDialogService(db *gorm.DB, users *UserService, messages *MessageService, blacklist *BlacklistService) *DialogService {
	return &DialogService{db: db, users: users, messages: messages, blacklist: blacklist}
}

func (s *DialogService) GetByID(ctx context.Context, id string) (*model.Dialog, error) {
	dialog := new(model.Dialog)
	err := s.db.WithContext(ctx).First(dialog, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrDialogNotFound
	}
	if err != nil {
		return nil, err
	}
	return dialog, nil
}

// GetByPair finds the dialog for an unordered user pair. Returns nil with
// no error when none exists.
func (s *DialogService) GetByPair(ctx context.Context, a, b string) (*model.Dialog, error) {
	dialog := new(model.Dialog)
	err := s.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		First(dialog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dialog, nil
}

// Create inserts a dialog between fromID and toID. Both orderings are
// checked first so the unordered pair stays unique.
func (s *DialogService) Create(ctx context.Context, fromID, toID string) (*model.Dialog, error) {
	if fromID == toID {
		return nil, apperr.ErrSelfDialog
	}

	existing, err := s.GetByPair(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.ErrDialogExists
	}

	if _, err := s.users.GetByID(ctx, toID); err != nil {
		return nil, err
	}

	dialog := &model.Dialog{
		FromUser:  model.DialogParticipant{UserID: fromID, IsNotificationsEnabled: true, IsSoundEnabled: true},
		ToUser:    model.DialogParticipant{UserID: toID, IsNotificationsEnabled: true, IsSoundEnabled: true},
		CreatedAt: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(dialog).Error; err != nil {
		return nil, err
	}
	return dialog, nil
}

func (s *DialogService) ListForUser(ctx context.Context, userID string) ([]model.Dialog, error) {
	dialogs := []model.Dialog{}
	err := s.db.WithContext(ctx).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Limit(100).
		Find(&dialogs).Error
	if err != nil {
		return nil, err
	}
	return dialogs, nil
}

func (s *DialogService) PinnedCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Dialog{}).
		Where("(from_user_id = ? AND from_is_pinned = ?) OR (to_user_id = ? AND to_is_pinned = ?)",
			userID, true, userID, true).
		Count(&count).Error
	return count, err
}

// Update merges the caller's preference fields into their side of the
// dialog. Pinning past the per-user limit fails with ErrPinLimit.
func (s *DialogService) Update(ctx context.Context, dialogID, userID string, upd model.DialogUpdate) (*model.Dialog, error) {
	dialog, err := s.GetByID(ctx, dialogID)
	if err != nil {
		return nil, err
	}

	participant := dialog.Participant(userID)
	if participant == nil {
		return nil, apperr.ErrNotDialogMember
	}

	if upd.IsPinned != nil {
		if *upd.IsPinned && !participant.IsPinned {
			pinned, err := s.PinnedCount(ctx, userID)
			if err != nil {
				return nil, err
			}
			if pinned >= PinnedDialogLimit {
				return nil, apperr.ErrPinLimit
			}
		}
		participant.IsPinned = *upd.IsPinned
	}
	if upd.IsNotificationsEnabled != nil {
		participant.IsNotificationsEnabled = *upd.IsNotificationsEnabled
	}
	if upd.IsSoundEnabled != nil {
		participant.IsSoundEnabled = *upd.IsSoundEnabled
	}

	if err := s.db.WithContext(ctx).Save(dialog).Error; err != nil {
		return nil, err
	}
	return dialog, nil
}

// Delete removes the dialog and cascades to all of its messages. Either
// participant may delete.
func (s *DialogService) Delete(ctx context.Context, dialogID, userID string) error {
	dialog, err := s.GetByID(ctx, dialogID)
	if err != nil {
		return err
	}

	if !dialog.HasParticipant(userID) {
		return apperr.ErrNotDialogMember
	}

	if err := s.db.WithContext(ctx).Delete(&model.Dialog{}, "id = ?", dialogID).Error; err != nil {
		return err
	}

	return s.messages.DeleteByDialog(ctx, dialogID)
}

// BuildSnapshot renders the dialog from userID's perspective: counterpart
// profile, unread count, images, last message and full message list.
func (s *DialogService) BuildSnapshot(ctx context.Context, dialog *model.Dialog, userID string) (*DialogSnapshot, error) {
	counterpart, err := s.users.GetByID(ctx, dialog.OtherUserID(userID))
	if err != nil {
		return nil, err
	}

	participant := dialog.Participant(userID)
	if participant == nil {
		return nil, apperr.ErrNotDialogMember
	}

	messages, err := s.messages.ListForDialog(ctx, dialog.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	unread, err := s.messages.UnreadCount(ctx, dialog.ID, userID)
	if err != nil {
		return nil, err
	}

	images, err := s.messages.Images(ctx, dialog.ID)
	if err != nil {
		return nil, err
	}

	isBlocked, err := s.blacklist.IsBlocked(ctx, userID, counterpart.ID)
	if err != nil {
		return nil, err
	}
	isMeBlocked, err := s.blacklist.IsBlocked(ctx, counterpart.ID, userID)
	if err != nil {
		return nil, err
	}

	var lastMessage *model.Message
	if len(messages) > 0 {
		lastMessage = &messages[len(messages)-1]
	}

	return &DialogSnapshot{
		ID:    dialog.ID,
		Label: counterpart.DisplayName(),
		User: UserInDialog{
			ID:           counterpart.ID,
			Username:     counterpart.Username,
			FirstName:    counterpart.FirstName,
			LastName:     counterpart.LastName,
			PhotoURL:     counterpart.PhotoURL,
			IsBlocked:    isBlocked,
			IsOnline:     counterpart.IsOnline,
			LastActivity: counterpart.LastActivity,
		},
		Images:                 images,
		UnreadMessages:         unread,
		IsPinned:               participant.IsPinned,
		IsNotificationsEnabled: participant.IsNotificationsEnabled,
		IsSoundEnabled:         participant.IsSoundEnabled,
		LastMessage:            lastMessage,
		Messages:               messages,
		IsMeBlocked:            isMeBlocked,
	}, nil
}

// Search matches the counterpart's display name and username by
// case-insensitive substring.
func (s *DialogService) Search(ctx context.Context, userID, query string) ([]DialogSnapshot, error) {
	dialogs, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	result := []DialogSnapshot{}
	for i := range dialogs {
		snapshot, err := s.BuildSnapshot(ctx, &dialogs[i], userID)
		if err != nil {
			if errors.Is(err, apperr.ErrUserNotFound) {
				continue
			}
			return nil, err
		}

		if strings.Contains(strings.ToLower(snapshot.Label), query) ||
			strings.Contains(strings.ToLower(snapshot.User.Username), query) {
			result = append(result, *snapshot)
		}
	}

	return result, nil
}
