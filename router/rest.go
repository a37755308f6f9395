package router

import (
	"fly-messenger/controller"
	"fly-messenger/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func Rest(app *fiber.App) {
	api := app.Group("/v1", logger.New())

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", controller.AuthSignup)
	auth.Get("/activate/:token", controller.AuthActivate)
	auth.Post("/signin", controller.AuthSignin)
	auth.Post("/logout", middleware.JWT(), controller.AuthLogout)
	auth.Post("/token/renew", controller.AuthTokenRenew)
	auth.Post("/2fa/secret", middleware.JWT(), middleware.OTP(), controller.AuthOtpSecret)
	auth.Post("/2fa/verify", middleware.JWT(), middleware.OTP(), controller.AuthOtpVerify)
	auth.Post("/2fa/validate", middleware.JWT(), controller.AuthOtpValidate)
	auth.Post("/2fa/disable", middleware.JWT(), middleware.OTP(), controller.AuthOtpDisable)

	// User
	user := api.Group("/user", middleware.JWT(), middleware.OTP())
	user.Get("/profile", controller.UserProfile)
	user.Put("/profile", controller.UserUpdate)
	user.Put("/avatar", controller.UserUpdateAvatar)
	user.Delete("/profile", controller.UserDelete)
	user.Get("/sessions", controller.UserSessions)
	user.Get("/blacklist", controller.UserBlacklist)
	user.Post("/blacklist", controller.UserBlacklistToggle)

	// Dialogs
	dialogs := api.Group("/dialogs", middleware.JWT(), middleware.OTP())
	dialogs.Post("/", controller.DialogCreate)
	dialogs.Get("/", controller.DialogList)
	dialogs.Put("/:id", controller.DialogUpdate)
	dialogs.Delete("/:id", controller.DialogDelete)
	dialogs.Get("/:id/messages", controller.DialogMessages)

	// Search
	search := api.Group("/search", middleware.JWT(), middleware.OTP())
	search.Get("/", controller.Search)
	search.Get("/dialog/:id", controller.SearchInDialog)

	// Admin
	admin := api.Group("/admin", middleware.JWT(), middleware.OTP(), middleware.RBAC())
	admin.Get("/users", controller.AdminUsers)
}
