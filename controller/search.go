package controller

import (
	"fly-messenger/apperr"

	"github.com/gofiber/fiber/v2"
)

// Search looks for users and dialogs matching the query at once, so the
// client renders a single combined result list.
func Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Query is required",
			"data":    nil,
		})
	}

	userID := currentUserID(c)

	users, err := userSvc.Search(c.Context(), query, userID)
	if err != nil {
		return failure(c, err)
	}

	dialogs, err := dialogSvc.Search(c.Context(), userID, query)
	if err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"users":   users,
			"dialogs": dialogs,
		},
	})
}

func SearchInDialog(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Query is required",
			"data":    nil,
		})
	}

	dialog, err := dialogSvc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return failure(c, err)
	}

	if !dialog.HasParticipant(currentUserID(c)) {
		return failure(c, apperr.ErrNotDialogMember)
	}

	messages, err := messageSvc.SearchInDialog(c.Context(), dialog.ID, query)
	if err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    messages,
	})
}
