package models

type Currency struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:100" json:"name"`
	Initial string `gorm:"size:20" json:"initial"`
	Code    string `gorm:"size:20" json:"code"`

	Audit
}
