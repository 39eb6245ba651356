package auth

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fanalyst/trading-api/internal/config"
	"github.com/fanalyst/trading-api/internal/database"
	"github.com/fanalyst/trading-api/internal/mailer"
	"github.com/fanalyst/trading-api/internal/models"
	"github.com/fanalyst/trading-api/internal/utils"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var (
	mail            mailer.Mailer
	googleAudiences []string
	oauthConfig     *oauth2.Config
)

var (
	ErrUserNotFound     = errors.New("User not found")
	ErrPasswordMismatch = errors.New("Password not match")
)

// Configure injects the runtime collaborators. The Google audience allow-list
// is deliberately configuration, not a package constant.
func Configure(cfg *config.Config, m mailer.Mailer) {
	mail = m
	googleAudiences = cfg.GoogleClientIDs
	oauthConfig = newOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
}

// LoginUser authenticates a local credential pair against the active,
// non-deleted account for the email.
//
// generatedPassword switches the check to plaintext equality against the
// stored value. This bypass exists for system-provisioned accounts whose
// password was issued, not chosen; it is preserved behavior and flagged in
// the security review notes.
func LoginUser(email, password string, generatedPassword bool) (*models.User, error) {
	var user models.User
	err := database.DB.Where("email = ? AND status = 1", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var passwordValid bool
	if generatedPassword {
		passwordValid = password == user.Password && password != ""
	} else {
		passwordValid = utils.CheckPasswordHash(password, user.Password)
	}
	if !passwordValid {
		return nil, ErrPasswordMismatch
	}

	token, err := utils.GenerateToken(user.ID, user.Email, user.DisplayName)
	if err != nil {
		return nil, err
	}
	user.Token = token

	return &user, nil
}

// FindOrCreateGoogleUser resolves the local account for a verified external
// identity, creating one on first login. The synthesized password is a
// placeholder, not a usable secret: the account authenticates through the
// external path.
func FindOrCreateGoogleUser(profile *GoogleProfile, idToken string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("email = ?", profile.Email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	password := base64.StdEncoding.EncodeToString([]byte(profile.Email + "%" + idToken))
	if len(password) > 100 {
		password = password[:100]
	}

	user = models.User{
		Role:        "member",
		DisplayName: profile.Name,
		Email:       profile.Email,
		ImageURL:    profile.Picture,
		Password:    password,
	}
	user.Status = 1

	if err := database.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IssueOTP generates and persists a reset code for the active account behind
// email, then hands it to the notification sender. A failed send leaves the
// already-persisted OTP valid; the caller re-issues to get a new delivery.
func IssueOTP(email string) (*models.User, string, error) {
	var user models.User
	err := database.DB.Where("email = ? AND status = 1", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", err
	}

	otp, expiry, err := utils.GenerateOTP()
	if err != nil {
		return nil, "", err
	}

	err = database.DB.Model(&user).Updates(map[string]interface{}{
		"otp":         otp,
		"otp_expired": expiry,
	}).Error
	if err != nil {
		return nil, "", err
	}

	return &user, otp, nil
}

// SendOTPMail delivers the reset code. Split from IssueOTP so the handler can
// translate a delivery failure without rolling back the OTP write.
func SendOTPMail(to, otp string) error {
	return mail.Send(
		to,
		"[FANALYST APP] Forgot Password",
		fmt.Sprintf("This is your OTP for resetting your password: %s. It will expire in 3 hours.", otp),
	)
}
