package router

import (
	"context"
	"strings"

	"fly-messenger/service"
	"fly-messenger/utils"
	"fly-messenger/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Socket mounts the realtime endpoint. The bearer token comes from the
// Authorization cookie or the token query parameter; a connect without
// either is rejected before the upgrade.
func Socket(app *fiber.App, registry *ws.Registry, handler *ws.Router, presence *service.PresenceService, log *zap.Logger) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := socketToken(c)
		if token == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals("token", token)
		return c.Next()
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		token, _ := conn.Locals("token").(string)

		claims, err := utils.CheckAndExtractTokenMetadata(token, "JWT_ACCESS_KEY")
		if err != nil || claims.Otp {
			// Invalid token or a login still waiting on 2FA: close
			// without registering.
			conn.Close()
			return
		}

		registry.Register(token, claims.Id, conn)

		defer func() {
			userID, last := registry.Unregister(conn)
			conn.Close()

			// Only the user's last closing connection flips presence, so
			// a second device keeps them online.
			if last && userID != "" {
				user, err := presence.Toggle(context.Background(), userID, false)
				if err != nil {
					log.Warn("presence update on disconnect failed", zap.String("userId", userID), zap.Error(err))
					return
				}
				registry.Broadcast(ws.OnlineStatusEvent{
					Type:         ws.EventToggleOnlineStatus,
					UserID:       userID,
					Status:       user.IsOnline,
					LastActivity: user.LastActivity,
				})
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			handler.Handle(context.Background(), raw, claims.Id, token)
		}
	}))
}

func socketToken(c *fiber.Ctx) string {
	token := c.Cookies("Authorization")
	if token == "" {
		token = c.Query("token")
	}
	return strings.TrimPrefix(token, "Bearer ")
}
