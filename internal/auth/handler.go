package auth

import (
	"errors"
	"time"

	"github.com/fanalyst/trading-api/internal/database"
	"github.com/fanalyst/trading-api/internal/logger"
	"github.com/fanalyst/trading-api/internal/models"
	"github.com/fanalyst/trading-api/internal/response"
	"github.com/fanalyst/trading-api/internal/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func LoginHandler(c *fiber.Ctx) error {
	var body struct {
		Email             string `json:"email"`
		Password          string `json:"password"`
		GeneratedPassword bool   `json:"generatedPassword"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	user, err := LoginUser(body.Email, body.Password, body.GeneratedPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrPasswordMismatch):
			// Missing account and wrong password share one error class.
			return response.NotFound(c, err.Error())
		default:
			return response.InternalError(c, "Login failed")
		}
	}

	return c.JSON(fiber.Map{"userData": user})
}

func LoginWithThirdHandler(c *fiber.Ctx) error {
	var body struct {
		IDToken     string `json:"idToken"`
		RedirectURI string `json:"redirectUri"`
		Type        string `json:"type"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	// Provider dispatch happens before any network validation.
	if body.Type != "GOOGLE" {
		return response.BadRequest(c, "Unsupported authentication type", nil)
	}

	profile, err := VerifyGoogleIDToken(c.Context(), body.IDToken)
	if err != nil {
		logger.Log.Error().Err(err).Msg("third-party token verification failed")
		return response.ExpectationFailed(c, "Error verifying token : "+err.Error())
	}
	if profile.Email == "" {
		return response.NotFound(c, "Token does not have any data")
	}

	user, err := FindOrCreateGoogleUser(profile, body.IDToken)
	if err != nil {
		logger.Log.Error().Err(err).Msg("resolving third-party account failed")
		return response.ExpectationFailed(c, "Error verifying token : "+err.Error())
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.DisplayName)
	if err != nil {
		return response.InternalError(c, "Failed to generate token")
	}

	return c.JSON(fiber.Map{
		"token":       token,
		"userData":    user,
		"token_third": nil,
	})
}

func VerifyHandler(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.DisplayName)
	if err != nil {
		return response.InternalError(c, "Failed to generate token")
	}

	return c.JSON(fiber.Map{"token": token, "userData": user})
}

func SignupHandler(c *fiber.Ctx) error {
	// Password is write-only on the model, so signup decodes through its own
	// request shape and copies the credential over.
	var body struct {
		models.User
		Password string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	user := body.User
	user.Password = body.Password

	if user.Email == "" {
		return response.ValidationError(c, map[string]string{
			"email": "email is required",
		})
	}

	// The duplicate check intentionally does not filter out soft-deleted
	// accounts; see the security review notes.
	var existing models.User
	err := database.DB.Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return response.Conflict(c, "User with email "+user.Email+" already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return response.InternalError(c, "Failed to validate email")
	}

	user.ID = 0
	user.DisplayName = utils.Sanitize(user.DisplayName)
	user.Status = 1
	if user.Password != "" {
		hashed, err := utils.HashPassword(user.Password)
		if err != nil {
			return response.InternalError(c, "Failed to hash password")
		}
		user.Password = hashed
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return response.InternalError(c, "Failed to create user")
	}

	return c.JSON(user)
}

func EditProfileHandler(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	var body struct {
		Role        *string `json:"role"`
		DisplayName *string `json:"displayName"`
		Email       *string `json:"email"`
		Password    *string `json:"password"`
		ImageURL    *string `json:"imageUrl"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	updates := map[string]interface{}{}

	if body.Email != nil && *body.Email != "" && *body.Email != user.Email {
		var existing models.User
		err := database.DB.Where("email = ? AND id <> ?", *body.Email, user.ID).First(&existing).Error
		if err == nil {
			return response.Conflict(c, "User with email "+*body.Email+" already exists")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return response.InternalError(c, "Failed to validate email")
		}
		updates["email"] = *body.Email
	}

	if body.DisplayName != nil && *body.DisplayName != "" {
		updates["display_name"] = utils.Sanitize(*body.DisplayName)
	}
	if body.Role != nil && *body.Role != "" {
		updates["role"] = *body.Role
	}
	if body.Password != nil && *body.Password != "" {
		hashed, err := utils.HashPassword(*body.Password)
		if err != nil {
			return response.InternalError(c, "Failed to hash password")
		}
		updates["password"] = hashed
	}
	// An empty imageUrl keeps the existing picture.
	if body.ImageURL != nil && *body.ImageURL != "" {
		updates["image_url"] = *body.ImageURL
	}

	updates["updated_at"] = time.Now()
	updates["user_updated"] = datatypes.NewJSONType(user.Snapshot())

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		return response.InternalError(c, "Failed to update profile")
	}

	var updated models.User
	if err := database.DB.First(&updated, user.ID).Error; err != nil {
		return response.InternalError(c, "Failed to reload profile")
	}
	return c.JSON(updated)
}

func ForgotHandler(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Email == "" {
		return response.BadRequest(c, "email is required", nil)
	}

	user, otp, err := IssueOTP(body.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return response.NotFound(c, "User with email "+body.Email+" does not exist.")
		}
		return response.InternalError(c, "Failed to issue OTP")
	}

	// The OTP is already persisted; a failed send is not rolled back. The
	// code stays valid for its window and a repeat forgot call overwrites it.
	if err := SendOTPMail(user.Email, otp); err != nil {
		logger.Log.Error().Err(err).Str("email", user.Email).Msg("sending OTP email failed")
		return response.InternalError(c, "Failed to send OTP email.")
	}

	return c.JSON(fiber.Map{"message": "SUCCESS"})
}

func ResetHandler(c *fiber.Ctx) error {
	var body struct {
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.OTP == "" || body.Password == "" {
		return response.BadRequest(c, "otp and password are required", nil)
	}

	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		return response.InternalError(c, "Failed to hash password")
	}

	// Single conditional update: verifying the code, clearing it and setting
	// the new password happen atomically, so a code redeems at most once even
	// under concurrent resets.
	res := database.DB.Model(&models.User{}).
		Where("otp = ? AND otp <> '' AND otp_expired > ? AND status_deleted = 0", body.OTP, time.Now()).
		Updates(map[string]interface{}{
			"otp":         "",
			"otp_expired": nil,
			"password":    hashed,
		})
	if res.Error != nil {
		return response.InternalError(c, "Failed to reset password")
	}
	if res.RowsAffected == 0 {
		return response.NotFound(c, "OTP is not valid or has expired.")
	}

	return c.JSON(fiber.Map{"message": "Password reset successful."})
}

func DeleteAccountHandler(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":         0,
		"status_deleted": 1,
		"deleted_at":     now,
		"user_deleted":   datatypes.NewJSONType(user.Snapshot()),
	}
	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		return response.InternalError(c, "Failed to delete account")
	}

	return c.JSON(fiber.Map{"message": "SUCCESS"})
}
