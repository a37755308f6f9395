package controller

import (
	"errors"

	"fly-messenger/apperr"
	"fly-messenger/service"
	"fly-messenger/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	userSvc      *service.UserService
	sessionSvc   *service.SessionService
	blacklistSvc *service.BlacklistService
	dialogSvc    *service.DialogService
	messageSvc   *service.MessageService
	imageSvc     *service.ImageService
	mailSvc      *service.MailService
	locationSvc  *service.LocationService
	realtime     *ws.Router
	log          *zap.Logger
)

// Setup wires the controllers' collaborators. Called once from main.
func Setup(
	users *service.UserService,
	sessions *service.SessionService,
	blacklist *service.BlacklistService,
	dialogs *service.DialogService,
	messages *service.MessageService,
	images *service.ImageService,
	mailer *service.MailService,
	location *service.LocationService,
	router *ws.Router,
	logger *zap.Logger,
) {
	userSvc = users
	sessionSvc = sessions
	blacklistSvc = blacklist
	dialogSvc = dialogs
	messageSvc = messages
	imageSvc = images
	mailSvc = mailer
	locationSvc = location
	realtime = router
	log = logger
}

func currentUserID(c *fiber.Ctx) string {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	id, _ := claims["id"].(string)
	return id
}

func currentToken(c *fiber.Ctx) string {
	return c.Locals("user").(*jwt.Token).Raw
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func validationFailure(c *fiber.Ctx, details []fieldError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"status":  "error",
		"message": "Validation error",
		"data":    details,
	})
}

// failure maps business-rule violations to their HTTP status and hides
// everything else behind a generic 500.
func failure(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return c.Status(statusOf(appErr.Code)).JSON(fiber.Map{
			"status":  "error",
			"message": appErr.Message,
			"data":    nil,
		})
	}

	log.Error("request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": "Internal server error",
		"data":    nil,
	})
}

func statusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument:
		return fiber.StatusBadRequest
	case apperr.CodeNotFound:
		return fiber.StatusNotFound
	case apperr.CodeAlreadyExists:
		return fiber.StatusBadRequest
	case apperr.CodePermissionDenied:
		return fiber.StatusForbidden
	case apperr.CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case apperr.CodeFailedPrecondition:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
