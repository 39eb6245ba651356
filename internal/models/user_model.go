package models

import "time"

// User is the identity record. Password is nullable: accounts created through
// third-party login carry a synthesized placeholder and are expected to keep
// authenticating through that path.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Role        string     `gorm:"size:50" json:"role"`
	DisplayName string     `gorm:"size:100" json:"displayName"`
	Email       string     `gorm:"uniqueIndex;size:100" json:"email"`
	Password    string     `gorm:"size:255" json:"-"`
	ImageURL    string     `gorm:"size:500" json:"imageUrl,omitempty"`
	OTP         string     `gorm:"column:otp;size:20" json:"-"`
	OTPExpired  *time.Time `gorm:"column:otp_expired" json:"-"`

	// Token is only populated in login-type responses; it is never persisted
	// as authentication state.
	Token string `gorm:"-" json:"token,omitempty"`

	Audit
}

// Snapshot returns the reduced audit copy of this user.
func (u *User) Snapshot() *UserSnapshot {
	return &UserSnapshot{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		ImageURL:    u.ImageURL,
	}
}
