package service

import (
	"context"
	"time"

	"fly-messenger/model"
)

// PresenceService tracks online/last-seen state. When the user hides their
// last activity the stored status is indeterminate, not the real value.
type PresenceService struct {
	users *UserService
}

func NewPresenceService(users *UserService) *PresenceService {
	return &PresenceService{users: users}
}

func (s *PresenceService) Toggle(ctx context.Context, userID string, online bool) (*model.User, error) {
	user, err := s.users.GetByIDUncached(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.Settings.LastActivityMode {
		user.IsOnline = nil
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	user.IsOnline = &online
	if !online {
		now := time.Now()
		user.LastActivity = &now
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
