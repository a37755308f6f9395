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

const messagePageLimit = 100

// MessageService owns messages inside dialogs. Messages never change after
// creation except for the read flag.
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

func (s *MessageService) Create(ctx context.Context, dialogID, senderID, text, fileURL string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && fileURL == "" {
		return nil, apperr.ErrEmptyMessage
	}

	message := &model.Message{
		DialogID: dialogID,
		SenderID: senderID,
		Text:     text,
		FileURL:  fileURL,
		SentAt:   time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (s *MessageService) GetByID(ctx context.Context, id string) (*model.Message, error) {
	message := new(model.Message)
	err := s.db.WithContext(ctx).First(message, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *MessageService) ListForDialog(ctx context.Context, dialogID string, skip, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > messagePageLimit {
		limit = messagePageLimit
	}

	messages := []model.Message{}
	err := s.db.WithContext(ctx).
		Where("dialog_id = ?", dialogID).
		Order("sent_at asc").
		Offset(skip).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flips the read flag. Re-reading an already-read message is a
// no-op that still returns the message.
func (s *MessageService) MarkRead(ctx context.Context, messageID, dialogID string) (*model.Message, error) {
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND dialog_id = ?", messageID, dialogID).
		Update("is_read", true).Error
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, messageID)
}

// UnreadCount is a live count of messages in the dialog not sent by the
// requester and not yet read.
func (s *MessageService) UnreadCount(ctx context.Context, dialogID, requesterID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("dialog_id = ? AND sender_id <> ? AND is_read = ?", dialogID, requesterID, false).
		Count(&count).Error
	return count, err
}

// SearchInDialog matches message text by case-insensitive substring.
func (s *MessageService) SearchInDialog(ctx context.Context, dialogID, query string) ([]model.Message, error) {
	messages := []model.Message{}
	pattern := "%" + strings.ToLower(query) + "%"
	err := s.db.WithContext(ctx).
		Where("dialog_id = ? AND LOWER(text) LIKE ?", dialogID, pattern).
		Order("sent_at asc").
		Limit(messagePageLimit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// LastMessage returns the newest message of the dialog, or nil when empty.
func (s *MessageService) LastMessage(ctx context.Context, dialogID string) (*model.Message, error) {
	message := new(model.Message)
	err := s.db.WithContext(ctx).
		Where("dialog_id = ?", dialogID).
		Order("sent_at desc").
		First(message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return message, nil
}

// Images lists the file URLs attached to the dialog's messages.
func (s *MessageService) Images(ctx context.Context, dialogID string) ([]string, error) {
	urls := []string{}
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("dialog_id = ? AND file_url <> ''", dialogID).
		Order("sent_at asc").
		Pluck("file_url", &urls).Error
	if err != nil {
		return nil, err
	}
	return urls, nil
}

func (s *MessageService) DeleteByDialog(ctx context.Context, dialogID string) error {
	return s.db.WithContext(ctx).Where("dialog_id = ?", dialogID).Delete(&model.Message{}).Error
}
