package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"fly-messenger/apperr"
	"fly-messenger/model"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const userCacheTTL = 30 * time.Second

// UserService wraps user lookups with a short-TTL redis cache in front of
// the store. The cache client may be nil.
type UserService struct {
	db    *gorm.DB
	cache *redis.Client
}

func NewUserService(db *gorm.DB, cache *redis.Client) *UserService {
	return &UserService{db: db, cache: cache}
}

func (s *UserService) Create(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, userCacheKey(id)).Result(); err == nil {
			user := new(model.User)
			if err := json.Unmarshal([]byte(raw), user); err == nil {
				return user, nil
			}
		}
	}

	user, err := s.GetByIDUncached(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(user); err == nil {
			s.cache.Set(ctx, userCacheKey(id), raw, userCacheTTL)
		}
	}

	return user, nil
}

func (s *UserService) GetByIDUncached(ctx context.Context, id string) (*model.User, error) {
	user := new(model.User)
	err := s.db.WithContext(ctx).Preload("Sessions").Preload("Blacklist").First(user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user := new(model.User)
	err := s.db.WithContext(ctx).First(user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user := new(model.User)
	err := s.db.WithContext(ctx).First(user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return err
	}
	s.invalidate(ctx, user.ID)
	return nil
}

// Search matches username, first and last name by case-insensitive
// substring, excluding the requesting user.
func (s *UserService) Search(ctx context.Context, query string, excludingID string) ([]model.User, error) {
	users := []model.User{}
	pattern := "%" + strings.ToLower(query) + "%"
	err := s.db.WithContext(ctx).
		Where("id <> ?", excludingID).
		Where(
			"LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern,
		).
		Limit(100).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// List returns users ordered by creation time, newest first.
func (s *UserService) List(ctx context.Context, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	users := []model.User{}
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes the user, their dialogs with all messages, their sessions
// and blacklist, and drops them from every other user's blacklist.
func (s *UserService) Delete(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)

	dialogs := []model.Dialog{}
	if err := db.Where("from_user_id = ? OR to_user_id = ?", id, id).Find(&dialogs).Error; err != nil {
		return err
	}
	for _, dialog := range dialogs {
		if err := db.Where("dialog_id = ?", dialog.ID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
	}
	if err := db.Where("from_user_id = ? OR to_user_id = ?", id, id).Delete(&model.Dialog{}).Error; err != nil {
		return err
	}

	if err := db.Where("user_id = ?", id).Delete(&model.Session{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ? OR blacklisted_user_id = ?", id, id).Delete(&model.BlacklistEntry{}).Error; err != nil {
		return err
	}

	if err := db.Delete(&model.User{}, "id = ?", id).Error; err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Del(ctx, userCacheKey(id))
	}
}

func userCacheKey(id string) string {
	return "user:" + id
}
