package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserSnapshot is the reduced, denormalized copy of the acting user that gets
// attached to audited records. It is a value copy, never a live reference,
// and never carries the password hash.
type UserSnapshot struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Audit holds the status, soft-delete and audit-stamp columns shared by every
// entity in the system.
//
// Status: 0 inactive, 1 active, 2 suspended.
// StatusDeleted: 0 not deleted, 1 deleted (record retained for audit linkage).
type Audit struct {
	Status        int                               `gorm:"default:1" json:"status"`
	CreatedAt     time.Time                         `json:"createdAt"`
	UpdatedAt     *time.Time                        `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
	StatusDeleted int                               `gorm:"default:0" json:"statusDeleted"`
	DeletedAt     *time.Time                        `json:"deletedAt,omitempty"`
	UserCreated   datatypes.JSONType[*UserSnapshot] `json:"userCreated"`
	UserUpdated   datatypes.JSONType[*UserSnapshot] `json:"userUpdated"`
	UserDeleted   datatypes.JSONType[*UserSnapshot] `json:"userDeleted"`
}

// Auditable is implemented by every entity through the embedded Audit struct,
// letting the mutation pipeline stamp records without per-entity code.
type Auditable interface {
	StampCreated(*UserSnapshot)
	StampUpdated(*UserSnapshot)
	StampDeleted(*UserSnapshot)
}

func (a *Audit) StampCreated(u *UserSnapshot) {
	a.UserCreated = datatypes.NewJSONType(u)
}

func (a *Audit) StampUpdated(u *UserSnapshot) {
	now := time.Now()
	a.UpdatedAt = &now
	a.UserUpdated = datatypes.NewJSONType(u)
}

// StampDeleted marks the record soft-deleted: logically gone, physically kept.
func (a *Audit) StampDeleted(u *UserSnapshot) {
	now := time.Now()
	a.DeletedAt = &now
	a.Status = 0
	a.StatusDeleted = 1
	a.UserDeleted = datatypes.NewJSONType(u)
}
