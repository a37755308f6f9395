package controller

import (
	"errors"

	"fly-messenger/apperr"
	"fly-messenger/model"
	"fly-messenger/service"

	"github.com/gofiber/fiber/v2"
)

type DialogCreateInput struct {
	ToUserID string `json:"toUserId"`
}

type DialogUpdateInput struct {
	IsPinned               *bool `json:"isPinned"`
	IsNotificationsEnabled *bool `json:"isNotificationsEnabled"`
	IsSoundEnabled         *bool `json:"isSoundEnabled"`
}

func DialogCreate(c *fiber.Ctx) error {
	input := new(DialogCreateInput)
	if err := c.BodyParser(input); err != nil || input.ToUserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}

	userID := currentUserID(c)

	dialog, err := dialogSvc.Create(c.Context(), userID, input.ToUserID)
	if err != nil {
		return failure(c, err)
	}

	snapshot, err := dialogSvc.BuildSnapshot(c.Context(), dialog, userID)
	if err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    snapshot,
	})
}

func DialogList(c *fiber.Ctx) error {
	userID := currentUserID(c)

	dialogs, err := dialogSvc.ListForUser(c.Context(), userID)
	if err != nil {
		return failure(c, err)
	}

	snapshots := []service.DialogSnapshot{}
	for i := range dialogs {
		snapshot, err := dialogSvc.BuildSnapshot(c.Context(), &dialogs[i], userID)
		if err != nil {
			// A dialog whose counterpart account is gone is skipped
			// rather than breaking the whole listing.
			if errors.Is(err, apperr.ErrUserNotFound) {
				continue
			}
			return failure(c, err)
		}
		snapshots = append(snapshots, *snapshot)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    snapshots,
	})
}

func DialogUpdate(c *fiber.Ctx) error {
	input := new(DialogUpdateInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}

	userID := currentUserID(c)

	dialog, err := dialogSvc.Update(c.Context(), c.Params("id"), userID, model.DialogUpdate{
		IsPinned:               input.IsPinned,
		IsNotificationsEnabled: input.IsNotificationsEnabled,
		IsSoundEnabled:         input.IsSoundEnabled,
	})
	if err != nil {
		return failure(c, err)
	}

	snapshot, err := dialogSvc.BuildSnapshot(c.Context(), dialog, userID)
	if err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    snapshot,
	})
}

func DialogDelete(c *fiber.Ctx) error {
	if err := dialogSvc.Delete(c.Context(), c.Params("id"), currentUserID(c)); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}

func DialogMessages(c *fiber.Ctx) error {
	dialog, err := dialogSvc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return failure(c, err)
	}

	if !dialog.HasParticipant(currentUserID(c)) {
		return failure(c, apperr.ErrNotDialogMember)
	}

	messages, err := messageSvc.ListForDialog(c.Context(), dialog.ID, c.QueryInt("skip", 0), c.QueryInt("limit", 0))
	if err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    messages,
	})
}
