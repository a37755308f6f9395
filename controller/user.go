package controller

import (
	"errors"

	"fly-messenger/apperr"
	"fly-messenger/model"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserUpdateInput struct {
	Username                  *string `json:"username"`
	FirstName                 *string `json:"firstName"`
	LastName                  *string `json:"lastName"`
	Theme                     *string `json:"theme"`
	Language                  *string `json:"language"`
	ChatsNotificationsEnabled *bool   `json:"chatsNotificationsEnabled"`
	ChatsSoundEnabled         *bool   `json:"chatsSoundEnabled"`
	IsDisplayNameVisible      *bool   `json:"isDisplayNameVisible"`
	IsEmailVisible            *bool   `json:"isEmailVisible"`
	LastActivityMode          *bool   `json:"lastActivityMode"`
}

type UserAvatarInput struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type UserBlacklistToggleInput struct {
	BlacklistedUserID string `json:"blacklistedUserId"`
}

func UserProfile(c *fiber.Ctx) error {
	userModel, err := userSvc.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    userModel,
	})
}

func UserUpdate(c *fiber.Ctx) error {
	input := new(UserUpdateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}

	userModel, err := userSvc.GetByIDUncached(c.Context(), currentUserID(c))
	if err != nil {
		return failure(c, err)
	}

	// A username change must not collide with another account.
	if input.Username != nil && *input.Username != userModel.Username {
		if _, err := userSvc.GetByUsername(c.Context(), *input.Username); err == nil {
			return validationFailure(c, []fieldError{
				{Field: "username", Message: "Username is already registered."},
			})
		}
	}

	model.ApplyUserUpdate(userModel, model.UserUpdate{
		Username:                  input.Username,
		FirstName:                 input.FirstName,
		LastName:                  input.LastName,
		Theme:                     input.Theme,
		Language:                  input.Language,
		ChatsNotificationsEnabled: input.ChatsNotificationsEnabled,
		ChatsSoundEnabled:         input.ChatsSoundEnabled,
		IsDisplayNameVisible:      input.IsDisplayNameVisible,
		IsEmailVisible:            input.IsEmailVisible,
		LastActivityMode:          input.LastActivityMode,
	})

	if err := userSvc.Update(c.Context(), userModel); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    userModel,
	})
}

func UserUpdateAvatar(c *fiber.Ctx) error {
	input := new(UserAvatarInput)
	if err := c.BodyParser(input); err != nil || input.Data == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}

	userModel, err := userSvc.GetByIDUncached(c.Context(), currentUserID(c))
	if err != nil {
		return failure(c, err)
	}

	url, err := imageSvc.StoreBase64(input.Data, input.Name, "avatars")
	if err != nil {
		return failure(c, err)
	}

	userModel.PhotoURL = url
	if err := userSvc.Update(c.Context(), userModel); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"photoURL": url,
		},
	})
}

func UserDelete(c *fiber.Ctx) error {
	if err := userSvc.Delete(c.Context(), currentUserID(c)); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}

func UserSessions(c *fiber.Ctx) error {
	sessions, err := sessionSvc.ListForUser(c.Context(), currentUserID(c))
	if err != nil {
		return failure(c, err)
	}

	current, err := sessionSvc.GetByToken(c.Context(), currentToken(c))
	if err != nil && !errors.Is(err, apperr.ErrSessionNotFound) {
		return failure(c, err)
	}

	currentID := ""
	if current != nil {
		currentID = current.ID
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"current":  currentID,
			"sessions": sessions,
		},
	})
}

func UserBlacklist(c *fiber.Ctx) error {
	entries, err := blacklistSvc.List(c.Context(), currentUserID(c))
	if err != nil {
		return failure(c, err)
	}

	blocked := []model.User{}
	for _, entry := range entries {
		user, err := userSvc.GetByID(c.Context(), entry.BlacklistedUserID)
		if err != nil {
			if errors.Is(err, apperr.ErrUserNotFound) {
				continue
			}
			return failure(c, err)
		}
		blocked = append(blocked, *user)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    blocked,
	})
}

func UserBlacklistToggle(c *fiber.Ctx) error {
	input := new(UserBlacklistToggleInput)
	if err := c.BodyParser(input); err != nil || input.BlacklistedUserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}

	userID := currentUserID(c)

	if _, err := userSvc.GetByID(c.Context(), input.BlacklistedUserID); err != nil {
		return failure(c, err)
	}

	blocked, err := blacklistSvc.Toggle(c.Context(), userID, input.BlacklistedUserID)
	if err != nil {
		return failure(c, err)
	}

	// Push the new block state to the affected user's live sockets.
	if realtime != nil {
		realtime.NotifyBlocked(userID, input.BlacklistedUserID, blocked)
	}

	log.Info("blacklist toggled",
		zap.String("userId", userID),
		zap.String("blacklistedUserId", input.BlacklistedUserID),
		zap.Bool("isBlocked", blocked),
	)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"isBlocked": blocked,
		},
	})
}

func AdminUsers(c *fiber.Ctx) error {
	users, err := userSvc.List(c.Context(), c.QueryInt("limit", 100))
	if err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    users,
	})
}
