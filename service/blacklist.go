package service

import (
	"context"
	"time"

	"fly-messenger/apperr"
	"fly-messenger/model"

	"gorm.io/gorm"
)

// BlacklistService answers block queries and owns the block/unblock toggle.
type BlacklistService struct {
	db *gorm.DB
}

func NewBlacklistService(db *gorm.DB) *BlacklistService {
	return &BlacklistService{db: db}
}

// IsBlocked reports whether ownerID has blocked otherID.
func (s *BlacklistService) IsBlocked(ctx context.Context, ownerID, otherID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.BlacklistEntry{}).
		Where("user_id = ? AND blacklisted_user_id = ?", ownerID, otherID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CanMessage is the symmetric check: a block in either direction suppresses
// delivery. Re-checked per send, block state changes between messages.
func (s *BlacklistService) CanMessage(ctx context.Context, a, b string) (bool, error) {
	blocked, err := s.IsBlocked(ctx, a, b)
	if err != nil || blocked {
		return false, err
	}

	blocked, err = s.IsBlocked(ctx, b, a)
	if err != nil || blocked {
		return false, err
	}

	return true, nil
}

// Toggle blocks targetID if not blocked, unblocks otherwise. Returns the
// resulting blocked state.
func (s *BlacklistService) Toggle(ctx context.Context, ownerID, targetID string) (bool, error) {
	if ownerID == targetID {
		return false, apperr.ErrSelfBlock
	}

	blocked, err := s.IsBlocked(ctx, ownerID, targetID)
	if err != nil {
		return false, err
	}

	if blocked {
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND blacklisted_user_id = ?", ownerID, targetID).
			Delete(&model.BlacklistEntry{}).Error
		return false, err
	}

	entry := &model.BlacklistEntry{
		UserID:            ownerID,
		BlacklistedUserID: targetID,
		BlockedAt:         time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *BlacklistService) List(ctx context.Context, ownerID string) ([]model.BlacklistEntry, error) {
	entries := []model.BlacklistEntry{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("blocked_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
