package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fly-messenger/apperr"
	"fly-messenger/model"

	"gorm.io/gorm"
)

// SessionService is the per-user directory of active login sessions.
type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

func (s *SessionService) Create(ctx context.Context, userID, token, ip, clientType, clientVersion, location string) (*model.Session, error) {
	if clientType == "" {
		clientType = model.ClientTypeUnknown
	}
	if clientVersion == "" {
		clientVersion = model.ClientTypeUnknown
	}

	session := &model.Session{
		UserID:    userID,
		Token:     token,
		IPAddress: ip,
		Type:      clientType,
		Label:     fmt.Sprintf("Fly Messenger %s %s", clientType, clientVersion),
		Location:  location,
		CreatedAt: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) GetByID(ctx context.Context, id string) (*model.Session, error) {
	session := new(model.Session)
	err := s.db.WithContext(ctx).First(session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	session := new(model.Session)
	err := s.db.WithContext(ctx).First(session, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListForUser returns the user's sessions, oldest first. Test sessions are
// excluded from real listings.
func (s *SessionService) ListForUser(ctx context.Context, userID string) ([]model.Session, error) {
	sessions := []model.Session{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type <> ?", userID, model.ClientTypeTest).
		Order("created_at asc").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&model.Session{}, "id = ?", id).Error
}

func (s *SessionService) DeleteByToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Delete(&model.Session{}, "token = ?", token).Error
}
