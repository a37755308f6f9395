package controller

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"fly-messenger/config"
	"fly-messenger/database"
	"fly-messenger/model"
	"fly-messenger/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const activationTTL = 24 * time.Hour

type AuthSignupInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type AuthLoginInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type AuthRenewTokenInput struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthOtpSecretInput struct {
	Password string `json:"password"`
}

type AuthOtpVerifyInput struct {
	Token string `json:"token"`
}

type AuthOtpValidateInput struct {
	Token string `json:"token"`
}

type AuthOtpDisableInput struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

func AuthSignup(c *fiber.Ctx) error {
	input := new(AuthSignupInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}

	details := []fieldError{}
	if input.Username == "" {
		details = append(details, fieldError{Field: "username", Message: "Username is required."})
	}
	if input.Email == "" {
		details = append(details, fieldError{Field: "email", Message: "Email is required."})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		details = append(details, fieldError{Field: "email", Message: "Email is not valid."})
	}
	if len(input.Password) < 8 {
		details = append(details, fieldError{Field: "password", Message: "Password must be at least 8 characters."})
	}
	if input.FirstName == "" {
		details = append(details, fieldError{Field: "firstName", Message: "First name is required."})
	}
	if len(details) > 0 {
		return validationFailure(c, details)
	}

	// If existed email is found, return error
	if _, err := userSvc.GetByEmail(c.Context(), input.Email); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Email is already registered",
			"data":    nil,
		})
	}

	// If existed username is found, return error
	if _, err := userSvc.GetByUsername(c.Context(), input.Username); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Username is already registered",
			"data":    nil,
		})
	}

	// Generate hash from password.
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), 14)
	if err != nil {
		return failure(c, err)
	}

	// Generate OTP secret
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.Config("OTP_ISSUER"),
		AccountName: input.Email,
		SecretSize:  15,
	})
	if err != nil {
		return failure(c, err)
	}

	user := &model.User{
		Username:   input.Username,
		Email:      input.Email,
		Password:   string(hash),
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Role:       "user",
		Otp_secret: key.Secret(),
	}

	if err := userSvc.Create(c.Context(), user); err != nil {
		return failure(c, err)
	}

	// Add casbin policy
	database.Casbin().AddGroupingPolicy(user.ID, user.Role)

	// Activation link is a one-shot code kept in redis.
	code := uuid.NewString()
	if err := database.Redis[0].Set(context.Background(), "activate:"+code, user.ID, activationTTL).Err(); err != nil {
		return failure(c, err)
	}

	if err := mailSvc.Send(user.Email, "Activate your account", "activation", map[string]string{
		"firstName": user.FirstName,
		"link":      fmt.Sprintf("%s/v1/auth/activate/%s", config.Config("PUBLIC_URL"), code),
	}); err != nil {
		log.Warn("activation mail not queued", zap.String("userId", user.ID), zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"id": user.ID,
		},
	})
}

func AuthActivate(c *fiber.Ctx) error {
	code := c.Params("token")

	userID, err := database.Redis[0].Get(context.Background(), "activate:"+code).Result()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid or expired activation link",
			"data":    nil,
		})
	}

	user, err := userSvc.GetByIDUncached(c.Context(), userID)
	if err != nil {
		return failure(c, err)
	}

	user.IsActivated = true
	if err := userSvc.Update(c.Context(), user); err != nil {
		return failure(c, err)
	}

	database.Redis[0].Del(context.Background(), "activate:"+code)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}

func AuthSignin(c *fiber.Ctx) error {
	input := new(AuthLoginInput)
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}

	userModel := new(model.User)
	var err error

	if _, errParse := mail.ParseAddress(input.Login); errParse == nil {
		userModel, err = userSvc.GetByEmail(c.Context(), input.Login)
	} else {
		userModel, err = userSvc.GetByUsername(c.Context(), input.Login)
	}

	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid login or password",
			"data":    nil,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(input.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid login or password",
			"data":    nil,
		})
	}

	if !userModel.IsActivated {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"message": "Account is not activated",
			"data":    nil,
		})
	}

	// Generate JWT Access & Refresh tokens
	tokens, err := utils.GenerateTokens(userModel.ID, userModel.Otp_enabled)
	if err != nil {
		return failure(c, err)
	}

	location := locationSvc.Lookup(c.Context(), c.IP())
	session, err := sessionSvc.Create(
		c.Context(),
		userModel.ID,
		tokens.Access,
		c.IP(),
		c.Get("X-Client-Type"),
		c.Get("X-Client-Version"),
		location,
	)
	if err != nil {
		return failure(c, err)
	}

	if err := database.Redis[0].Set(context.Background(), userModel.ID, tokens.Refresh, 0).Err(); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"access":  tokens.Access,
			"refresh": tokens.Refresh,
			"2fa":     userModel.Otp_enabled,
			"session": session.ID,
		},
	})
}

func AuthLogout(c *fiber.Ctx) error {
	if err := sessionSvc.DeleteByToken(c.Context(), currentToken(c)); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}

func AuthTokenRenew(c *fiber.Ctx) error {
	renew := &AuthRenewTokenInput{}
	if err := c.BodyParser(renew); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}

	claims, err := utils.CheckAndExtractTokenMetadata(renew.RefreshToken, "JWT_REFRESH_KEY")
	if err != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid token",
			"data":    nil,
		})
	}

	userToken, err := database.Redis[0].Get(context.Background(), claims.Id).Result()
	if err != nil {
		return failure(c, err)
	}

	if userToken != renew.RefreshToken {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Unauthorized, your refresh token was already used",
			"data":    nil,
		})
	}

	// Generate JWT Access & Refresh tokens
	tokens, err := utils.GenerateTokens(claims.Id, claims.Otp)
	if err != nil {
		return failure(c, err)
	}

	// Save refresh token to Redis
	if err := database.Redis[0].Set(context.Background(), claims.Id, tokens.Refresh, 0).Err(); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"access":  tokens.Access,
			"refresh": tokens.Refresh,
			"2fa":     claims.Otp,
		},
	})
}

func AuthOtpSecret(c *fiber.Ctx) error {
	secret := &AuthOtpSecretInput{}
	if err := c.BodyParser(secret); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}

	userModel, err := userSvc.GetByID(c.Context(), currentUserID(c))
	if err != nil {
		return failure(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(secret.Password)); err != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid password",
			"data":    nil,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"secret": userModel.Otp_secret,
			"url": fmt.Sprintf("otpauth://totp/%s:%s?algorithm=SHA1&digits=6&issuer=%s&period=30&secret=%s",
				config.Config("OTP_ISSUER"),
				userModel.Email,
				config.Config("OTP_ISSUER"),
				userModel.Otp_secret,
			),
		},
	})
}

func AuthOtpVerify(c *fiber.Ctx) error {
	verify := &AuthOtpVerifyInput{}
	if err := c.BodyParser(verify); err != nil {
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

	if userModel.Otp_enabled {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Verification has already been performed earlier",
			"data":    nil,
		})
	}

	if !totp.Validate(verify.Token, userModel.Otp_secret) {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid token",
			"data":    nil,
		})
	}

	userModel.Otp_enabled = true
	if err := userSvc.Update(c.Context(), userModel); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}

func AuthOtpValidate(c *fiber.Ctx) error {
	validate := &AuthOtpValidateInput{}
	if err := c.BodyParser(validate); err != nil {
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

	if !userModel.Otp_enabled {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "2FA has been disabled",
			"data":    nil,
		})
	}

	if !totp.Validate(validate.Token, userModel.Otp_secret) {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid token",
			"data":    nil,
		})
	}

	// Generate JWT Access & Refresh tokens
	tokens, err := utils.GenerateTokens(userModel.ID, false)
	if err != nil {
		return failure(c, err)
	}

	// Save refresh token to Redis
	if err := database.Redis[0].Set(context.Background(), userModel.ID, tokens.Refresh, 0).Err(); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"access":  tokens.Access,
			"refresh": tokens.Refresh,
		},
	})
}

func AuthOtpDisable(c *fiber.Ctx) error {
	disable := &AuthOtpDisableInput{}
	if err := c.BodyParser(disable); err != nil {
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

	if !userModel.Otp_enabled {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "2fa not enabled",
			"data":    nil,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(disable.Password)); err != nil {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid password",
			"data":    nil,
		})
	}

	if !totp.Validate(disable.Token, userModel.Otp_secret) {
		return c.JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid token",
			"data":    nil,
		})
	}

	userModel.Otp_enabled = false
	if err := userSvc.Update(c.Context(), userModel); err != nil {
		return failure(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}
