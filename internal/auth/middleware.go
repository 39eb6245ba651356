package auth

import (
	"strings"

	"github.com/fanalyst/trading-api/internal/database"
	"github.com/fanalyst/trading-api/internal/models"
	"github.com/fanalyst/trading-api/internal/response"
	"github.com/fanalyst/trading-api/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// JWTProtected verifies the bearer token and stores the subject id in the
// request locals. Account existence is checked separately by CurrentUser:
// both must hold for an authenticated operation to proceed.
func JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid token format")
		}

		userID, err := utils.ParseToken(tokenParts[1])
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// CurrentUser materializes the acting account for the request. A valid token
// whose subject no longer resolves yields ErrRecordNotFound.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SnapshotFromContext returns the audit snapshot of the acting user, or false
// on unauthenticated routes.
func SnapshotFromContext(c *fiber.Ctx) (*models.UserSnapshot, bool) {
	if _, ok := c.Locals("user_id").(uint); !ok {
		return nil, false
	}
	user, err := CurrentUser(c)
	if err != nil {
		return nil, false
	}
	return user.Snapshot(), true
}
