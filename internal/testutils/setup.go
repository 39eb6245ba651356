package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/fanalyst/trading-api/internal/auth"
	"github.com/fanalyst/trading-api/internal/config"
	"github.com/fanalyst/trading-api/internal/database"
	"github.com/fanalyst/trading-api/internal/models"
	"github.com/fanalyst/trading-api/internal/server"
	"github.com/fanalyst/trading-api/internal/storage"
	"github.com/fanalyst/trading-api/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// FakeMailer records outgoing mail and can be primed to fail.
type FakeMailer struct {
	Sent []SentMail
	Err  error
}

type SentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *FakeMailer) Send(to, subject, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err, "Failed to create test database")

	err = database.Migrate(db)
	assert.NoError(t, err, "Failed to migrate test database")

	return db
}

// SetupTestApp builds a full application against an in-memory database and a
// fake mailer, returning both.
func SetupTestApp(t *testing.T) (*fiber.App, *FakeMailer) {
	db := TestDB(t)
	database.DB = db

	mail := &FakeMailer{}
	auth.Configure(&config.Config{
		GoogleClientIDs: []string{"test-client-id.apps.googleusercontent.com"},
	}, mail)

	err := storage.InitLocal()
	assert.NoError(t, err, "Failed to initialize storage")
	storage.SetLocalMode(true)

	return server.New(db), mail
}

func CreateTestUser(t *testing.T, db *gorm.DB, email, password, role string) *models.User {
	hashedPassword, _ := utils.HashPassword(password)

	user := &models.User{
		Role:        role,
		DisplayName: "Test User",
		Email:       email,
		Password:    hashedPassword,
	}
	user.Status = 1

	err := db.Create(user).Error
	assert.NoError(t, err, "Failed to create test user")

	return user
}

func GetAuthToken(t *testing.T, user *models.User) string {
	token, err := utils.GenerateToken(user.ID, user.Email, user.DisplayName)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func MakeMultipartRequestWithFile(app *fiber.App, method, url string, files map[string][]byte, token string) (*httptest.ResponseRecorder, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for fieldName, fileContent := range files {
		part, err := writer.CreateFormFile(fieldName, fieldName+".jpg")
		if err != nil {
			return nil, err
		}
		part.Write(fileContent)
	}

	contentType := writer.FormDataContentType()
	writer.Close()

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", contentType)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode
	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

// ErrorBody mirrors the response package's error envelope for assertions.
type ErrorBody struct {
	Error struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details"`
	} `json:"error"`
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result ErrorBody
	ParseResponse(t, resp, &result)
	assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
}
