package models

import "gorm.io/datatypes"

type OriginArea struct {
	ID      uint           `gorm:"primaryKey" json:"id"`
	Country datatypes.JSON `json:"country,omitempty"`
	Name    string         `gorm:"size:100" json:"name"`
	Code    string         `gorm:"size:50" json:"code"`

	Audit
}

func (OriginArea) TableName() string { return "origin_areas" }
