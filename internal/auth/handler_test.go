package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fanalyst/trading-api/internal/database"
	"github.com/fanalyst/trading-api/internal/models"
	"github.com/fanalyst/trading-api/internal/testutils"
	"github.com/fanalyst/trading-api/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestSignup(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)

	t.Run("Creates user with hashed password", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/signup", map[string]interface{}{
			"email":       "alice@example.com",
			"password":    "p1",
			"displayName": "Alice",
			"role":        "admin",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var body map[string]interface{}
		testutils.ParseResponse(t, resp, &body)
		assert.Equal(t, "alice@example.com", body["email"])
		assert.NotContains(t, body, "password", "password must never appear in responses")

		var stored models.User
		assert.NoError(t, database.DB.Where("email = ?", "alice@example.com").First(&stored).Error)
		assert.NotEqual(t, "p1", stored.Password)
		assert.True(t, utils.CheckPasswordHash("p1", stored.Password))
		assert.Equal(t, 1, stored.Status)
	})

	t.Run("Rejects duplicate email", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/signup", map[string]interface{}{
			"email":    "alice@example.com",
			"password": "other",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)
		testutils.AssertError(t, resp, "CONFLICT")
	})

	t.Run("Rejects missing email", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/signup", map[string]interface{}{
			"password": "p1",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		testutils.AssertError(t, resp, "VALIDATION_ERROR")
	})

	t.Run("Signed-up credentials can log in", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/signup", map[string]interface{}{
			"email":    "a@x.com",
			"password": "p1",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		resp, err = testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
			"email":    "a@x.com",
			"password": "p1",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var body struct {
			UserData models.User `json:"userData"`
		}
		testutils.ParseResponse(t, resp, &body)
		assert.NotEmpty(t, body.UserData.Token)
	})

	t.Run("Sanitizes display name", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/signup", map[string]interface{}{
			"email":       "bob@example.com",
			"password":    "p1",
			"displayName": "Bob<script>alert(1)</script>",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var stored models.User
		assert.NoError(t, database.DB.Where("email = ?", "bob@example.com").First(&stored).Error)
		assert.Equal(t, "Bob", stored.DisplayName)
	})
}

func TestSignupDatabaseFailure(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)

	// A broken connection during the duplicate check must surface as a 500,
	// not be read as "email is free".
	sqlDB, err := database.DB.DB()
	assert.NoError(t, err)
	assert.NoError(t, sqlDB.Close())

	resp, err := testutils.MakeRequest(app, "POST", "/auth/signup", map[string]interface{}{
		"email":    "unreachable@example.com",
		"password": "p1",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 500, resp.Code)
	testutils.AssertError(t, resp, "INTERNAL_ERROR")
}

func TestLogin(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	testutils.CreateTestUser(t, database.DB, "carol@example.com", "secret123", "member")

	t.Run("Valid credentials return user with token", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
			"email":    "carol@example.com",
			"password": "secret123",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var body struct {
			UserData models.User `json:"userData"`
		}
		testutils.ParseResponse(t, resp, &body)
		assert.Equal(t, "carol@example.com", body.UserData.Email)
		assert.NotEmpty(t, body.UserData.Token)

		id, err := utils.ParseToken(body.UserData.Token)
		assert.NoError(t, err)
		assert.Equal(t, body.UserData.ID, id)
	})

	t.Run("Wrong password returns 404", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
			"email":    "carol@example.com",
			"password": "wrong",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
		testutils.AssertError(t, resp, "NOT_FOUND")
	})

	t.Run("Unknown email returns 404", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
			"email":    "ghost@example.com",
			"password": "secret123",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("generatedPassword flag does not match a hashed password", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
			"email":             "carol@example.com",
			"password":          "secret123",
			"generatedPassword": true,
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("generatedPassword flag matches a stored plaintext", func(t *testing.T) {
		user := &models.User{
			Role:        "member",
			DisplayName: "Provisioned",
			Email:       "provisioned@example.com",
			Password:    "issued-plaintext",
		}
		user.Status = 1
		assert.NoError(t, database.DB.Create(user).Error)

		resp, err := testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
			"email":             "provisioned@example.com",
			"password":          "issued-plaintext",
			"generatedPassword": true,
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
	})

	t.Run("Empty password never matches an empty stored hash", func(t *testing.T) {
		user := &models.User{Role: "member", DisplayName: "No Password", Email: "nopass@example.com"}
		user.Status = 1
		assert.NoError(t, database.DB.Create(user).Error)

		for _, generated := range []bool{false, true} {
			resp, err := testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
				"email":             "nopass@example.com",
				"password":          "",
				"generatedPassword": generated,
			}, "")
			assert.NoError(t, err)
			assert.Equal(t, 404, resp.Code)
		}
	})
}

func TestVerify(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	user := testutils.CreateTestUser(t, database.DB, "dave@example.com", "secret123", "member")
	token := testutils.GetAuthToken(t, user)

	t.Run("Valid token returns fresh token and user", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/auth/verify", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var body struct {
			Token    string      `json:"token"`
			UserData models.User `json:"userData"`
		}
		testutils.ParseResponse(t, resp, &body)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, user.ID, body.UserData.ID)
	})

	t.Run("Missing token returns 401", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/auth/verify", nil, "")
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
		testutils.AssertError(t, resp, "UNAUTHORIZED")
	})

	t.Run("Token for a vanished user returns 404", func(t *testing.T) {
		gone := testutils.CreateTestUser(t, database.DB, "gone@example.com", "secret123", "member")
		goneToken := testutils.GetAuthToken(t, gone)
		assert.NoError(t, database.DB.Unscoped().Delete(&models.User{}, gone.ID).Error)

		resp, err := testutils.MakeRequest(app, "GET", "/auth/verify", nil, goneToken)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}

func TestEditProfile(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	user := testutils.CreateTestUser(t, database.DB, "erin@example.com", "secret123", "member")
	testutils.CreateTestUser(t, database.DB, "taken@example.com", "secret123", "member")
	token := testutils.GetAuthToken(t, user)

	t.Run("Updates display name and stamps updater", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/edit-profile", map[string]interface{}{
			"displayName": "Erin Updated",
		}, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var stored models.User
		assert.NoError(t, database.DB.First(&stored, user.ID).Error)
		assert.Equal(t, "Erin Updated", stored.DisplayName)
		assert.NotNil(t, stored.UpdatedAt)
		updatedBy := stored.UserUpdated.Data()
		assert.NotNil(t, updatedBy)
		assert.Equal(t, user.ID, updatedBy.ID)
	})

	t.Run("Rejects email already in use", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/edit-profile", map[string]interface{}{
			"email": "taken@example.com",
		}, token)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)
		testutils.AssertError(t, resp, "CONFLICT")
	})

	t.Run("Empty imageUrl keeps the existing picture", func(t *testing.T) {
		assert.NoError(t, database.DB.Model(&models.User{}).Where("id = ?", user.ID).
			Update("image_url", "https://cdn.example.com/a.png").Error)

		resp, err := testutils.MakeRequest(app, "POST", "/auth/edit-profile", map[string]interface{}{
			"imageUrl": "",
		}, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var stored models.User
		assert.NoError(t, database.DB.First(&stored, user.ID).Error)
		assert.Equal(t, "https://cdn.example.com/a.png", stored.ImageURL)
	})

	t.Run("New password is hashed", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/edit-profile", map[string]interface{}{
			"password": "newsecret",
		}, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var stored models.User
		assert.NoError(t, database.DB.First(&stored, user.ID).Error)
		assert.True(t, utils.CheckPasswordHash("newsecret", stored.Password))
	})
}

func TestForgotAndReset(t *testing.T) {
	app, mail := testutils.SetupTestApp(t)
	user := testutils.CreateTestUser(t, database.DB, "frank@example.com", "oldsecret", "member")

	t.Run("Forgot persists OTP and sends mail", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/forgot", map[string]interface{}{
			"email": "frank@example.com",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var stored models.User
		assert.NoError(t, database.DB.First(&stored, user.ID).Error)
		assert.Len(t, stored.OTP, 12)
		assert.NotNil(t, stored.OTPExpired)
		assert.WithinDuration(t, time.Now().Add(3*time.Hour), *stored.OTPExpired, time.Minute)

		assert.Len(t, mail.Sent, 1)
		assert.Equal(t, "frank@example.com", mail.Sent[0].To)
		assert.Contains(t, mail.Sent[0].Body, stored.OTP)
	})

	t.Run("Reset consumes the OTP exactly once", func(t *testing.T) {
		var stored models.User
		assert.NoError(t, database.DB.First(&stored, user.ID).Error)
		otp := stored.OTP

		resp, err := testutils.MakeRequest(app, "POST", "/auth/reset", map[string]interface{}{
			"otp":      otp,
			"password": "newsecret",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		assert.NoError(t, database.DB.First(&stored, user.ID).Error)
		assert.Empty(t, stored.OTP)
		assert.True(t, utils.CheckPasswordHash("newsecret", stored.Password))
		assert.False(t, utils.CheckPasswordHash("oldsecret", stored.Password))

		// Replay with the redeemed code.
		resp, err = testutils.MakeRequest(app, "POST", "/auth/reset", map[string]interface{}{
			"otp":      otp,
			"password": "another",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Expired OTP is rejected", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/forgot", map[string]interface{}{
			"email": "frank@example.com",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var stored models.User
		assert.NoError(t, database.DB.First(&stored, user.ID).Error)
		assert.NoError(t, database.DB.Model(&stored).
			Update("otp_expired", time.Now().Add(-time.Minute)).Error)

		resp, err = testutils.MakeRequest(app, "POST", "/auth/reset", map[string]interface{}{
			"otp":      stored.OTP,
			"password": "newsecret",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
		testutils.AssertError(t, resp, "NOT_FOUND")
	})

	t.Run("Unknown email returns 404", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/forgot", map[string]interface{}{
			"email": "ghost@example.com",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)

		var body testutils.ErrorBody
		testutils.ParseResponse(t, resp, &body)
		assert.Equal(t, "User with email ghost@example.com does not exist.", body.Error.Message)
	})

	t.Run("Mail failure returns 500 and leaves OTP persisted", func(t *testing.T) {
		mail.Err = errors.New("smtp down")
		defer func() { mail.Err = nil }()

		resp, err := testutils.MakeRequest(app, "POST", "/auth/forgot", map[string]interface{}{
			"email": "frank@example.com",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 500, resp.Code)
		testutils.AssertError(t, resp, "INTERNAL_ERROR")

		var stored models.User
		assert.NoError(t, database.DB.First(&stored, user.ID).Error)
		assert.Len(t, stored.OTP, 12)
	})

	t.Run("Empty otp never matches", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/auth/reset", map[string]interface{}{
			"otp":      "",
			"password": "newsecret",
		}, "")
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
	})
}

func TestDeleteAccount(t *testing.T) {
	app, _ := testutils.SetupTestApp(t)
	user := testutils.CreateTestUser(t, database.DB, "grace@example.com", "secret123", "member")
	token := testutils.GetAuthToken(t, user)

	resp, err := testutils.MakeRequest(app, "DELETE", "/auth/delete-account", nil, token)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var body map[string]interface{}
	testutils.ParseResponse(t, resp, &body)
	assert.Equal(t, "SUCCESS", body["message"])

	var stored models.User
	assert.NoError(t, database.DB.First(&stored, user.ID).Error)
	assert.Equal(t, 0, stored.Status)
	assert.Equal(t, 1, stored.StatusDeleted)
	assert.NotNil(t, stored.DeletedAt)
	deletedBy := stored.UserDeleted.Data()
	assert.NotNil(t, deletedBy)
	assert.Equal(t, user.ID, deletedBy.ID)

	// A deleted account can no longer sign in.
	resp, err = testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
		"email":    "grace@example.com",
		"password": "secret123",
	}, "")
	assert.NoError(t, err)
	assert.Equal(t, 404, resp.Code)
}
